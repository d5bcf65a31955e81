package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
	"github.com/Freeeeeet/speaking_scheduler/internal/service"
)

var errHelp = errors.New("help provided")

type slotGenerator interface {
	GenerateSlotsFromTemplate(ctx context.Context, teacherID uuid.UUID, startDate, endDate time.Time, slotDurationMinutes int) (*service.GenerateResult, error)
	AutoGenerateSlots(ctx context.Context, opts service.AutoGenerateOptions) (*service.AutoGenerateResult, error)
}

type tokenIssuer interface {
	Generate(userID string, role model.Role, profileID string) (string, error)
}

type migrator interface {
	Run(ctx context.Context) error
}

// commandLine resolves its dependencies lazily so that "token" works
// without a database.
type commandLine struct {
	out         io.Writer
	migrator    func(ctx context.Context) (migrator, error)
	generator   func(ctx context.Context) (slotGenerator, error)
	tokens      func() (tokenIssuer, error)
	autogenOpts func() (service.AutoGenerateOptions, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate                                                  - apply database migrations")
	fmt.Fprintln(cli.out, "  generate -teacher ID -from DATE -to DATE [-duration N]   - generate slots from the teacher's templates")
	fmt.Fprintln(cli.out, "  autogen                                                  - run one automatic generation cycle")
	fmt.Fprintln(cli.out, "  token -user ID -role ROLE [-profile ID] - mint a development access token")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		mg, err := cli.migrator(ctx)
		if err != nil {
			return err
		}
		if err := mg.Run(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "migrations applied")
		return nil

	case "generate":
		return cli.generate(ctx, args[2:])

	case "autogen":
		return cli.autogen(ctx)

	case "token":
		return cli.token(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) generate(ctx context.Context, args []string) error {
	cmd := flag.NewFlagSet("generate", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	teacher := cmd.String("teacher", "", "Teacher ID")
	from := cmd.String("from", "", "First date, YYYY-MM-DD")
	to := cmd.String("to", "", "Last date (inclusive), YYYY-MM-DD")
	duration := cmd.Int("duration", 15, "Slot length in minutes")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	teacherID, err := uuid.Parse(*teacher)
	if err != nil || *from == "" || *to == "" {
		cmd.Usage()
		return errHelp
	}
	startDate, err := model.ParseDate(*from)
	if err != nil {
		return err
	}
	endDate, err := model.ParseDate(*to)
	if err != nil {
		return err
	}

	gen, err := cli.generator(ctx)
	if err != nil {
		return err
	}
	result, err := gen.GenerateSlotsFromTemplate(ctx, teacherID, startDate, endDate, *duration)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "created %d slots for teacher %s\n", result.SlotsCreated, teacherID)
	return nil
}

func (cli *commandLine) autogen(ctx context.Context) error {
	opts, err := cli.autogenOpts()
	if err != nil {
		return err
	}
	gen, err := cli.generator(ctx)
	if err != nil {
		return err
	}

	opts.Now = time.Now()
	result, err := gen.AutoGenerateSlots(ctx, opts)
	if result != nil {
		fmt.Fprintf(cli.out, "processed %d of %d teachers, created %d slots\n",
			result.TeachersProcessed, result.TotalTeachers, result.SlotsCreated)
	}
	return err
}

func (cli *commandLine) token(args []string) error {
	cmd := flag.NewFlagSet("token", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	user := cmd.String("user", "", "User ID placed in the token")
	role := cmd.String("role", "", "admin, teacher or student")
	profile := cmd.String("profile", "", "Teacher or student ID the user acts as")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	r := model.Role(*role)
	if *user == "" || !r.IsValid() {
		cmd.Usage()
		return errHelp
	}
	if *profile != "" {
		if _, err := uuid.Parse(*profile); err != nil {
			return fmt.Errorf("profile must be a UUID: %w", err)
		}
	}

	tokens, err := cli.tokens()
	if err != nil {
		return err
	}
	tok, err := tokens.Generate(*user, r, *profile)
	if err != nil {
		return err
	}

	fmt.Fprintln(cli.out, tok)
	return nil
}
