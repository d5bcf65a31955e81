package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
	"github.com/Freeeeeet/speaking_scheduler/internal/repository"
)

// ── In-memory store shared by the mock repositories ──

type memStore struct {
	mu        sync.Mutex
	teachers  map[uuid.UUID]*model.Teacher
	students  map[uuid.UUID]*model.Student
	sessions  map[uuid.UUID]*model.TestSession
	templates map[uuid.UUID]*model.TeacherScheduleTemplate
	slots     map[uuid.UUID]*model.SpeakingSlot

	batchCalls int
	batchErr   error
	txCalls    int
}

func newMemStore() *memStore {
	return &memStore{
		teachers:  make(map[uuid.UUID]*model.Teacher),
		students:  make(map[uuid.UUID]*model.Student),
		sessions:  make(map[uuid.UUID]*model.TestSession),
		templates: make(map[uuid.UUID]*model.TeacherScheduleTemplate),
		slots:     make(map[uuid.UUID]*model.SpeakingSlot),
	}
}

func (m *memStore) addTeacher() *model.Teacher {
	t := &model.Teacher{ID: uuid.New(), FirstName: "Grace", LastName: "Hopper", IsActive: true}
	m.teachers[t.ID] = t
	return t
}

// addStudentSession creates a student with a session in MCQ_COMPLETED
func (m *memStore) addStudentSession() (*model.Student, *model.TestSession) {
	st := &model.Student{ID: uuid.New(), FirstName: "Alan", LastName: "Turing"}
	m.students[st.ID] = st
	sess := &model.TestSession{ID: uuid.New(), StudentID: st.ID, Status: model.TestSessionStatusMCQCompleted}
	m.sessions[sess.ID] = sess
	return st, sess
}

func (m *memStore) addSlot(teacherID uuid.UUID, date time.Time, at model.ClockTime) *model.SpeakingSlot {
	s := &model.SpeakingSlot{
		ID:              uuid.New(),
		TeacherID:       teacherID,
		SlotDate:        date,
		SlotTime:        at,
		DurationMinutes: 15,
		Status:          model.SlotStatusAvailable,
	}
	m.slots[s.ID] = s
	return s
}

func (m *memStore) slot(id uuid.UUID) model.SpeakingSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.slots[id]
}

func (m *memStore) session(id uuid.UUID) model.TestSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.sessions[id]
}

func cloneSlot(s *model.SpeakingSlot) *model.SpeakingSlot {
	c := *s
	return &c
}

// ── Transactor ──

type mockTx struct{ store *memStore }

func (t mockTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.store.mu.Lock()
	t.store.txCalls++
	t.store.mu.Unlock()
	return fn(ctx)
}

// ── Teachers ──

type mockTeacherRepo struct{ store *memStore }

func (r mockTeacherRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Teacher, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if t, ok := r.store.teachers[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (r mockTeacherRepo) ListActive(_ context.Context) ([]*model.Teacher, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*model.Teacher
	for _, t := range r.store.teachers {
		if t.IsActive {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// ── Students ──

type mockStudentRepo struct{ store *memStore }

func (r mockStudentRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Student, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.students[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

func (r mockStudentRepo) UpdateCurrentLevel(_ context.Context, id uuid.UUID, level model.Level) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.students[id]
	if !ok {
		return errors.New("student missing")
	}
	s.CurrentLevel = &level
	return nil
}

// ── Test sessions ──

type mockSessionRepo struct{ store *memStore }

func (r mockSessionRepo) GetByID(_ context.Context, id uuid.UUID) (*model.TestSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.sessions[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

func (r mockSessionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.TestSessionStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sessions[id]
	if !ok {
		return errors.New("session missing")
	}
	s.Status = status
	return nil
}

// ── Templates ──

type mockTemplateRepo struct{ store *memStore }

func (r mockTemplateRepo) Create(_ context.Context, tpl *model.TeacherScheduleTemplate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tpl.ID = uuid.New()
	tpl.CreatedAt, tpl.UpdatedAt = time.Now(), time.Now()
	c := *tpl
	r.store.templates[tpl.ID] = &c
	return nil
}

func (r mockTemplateRepo) GetByID(_ context.Context, id uuid.UUID) (*model.TeacherScheduleTemplate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if t, ok := r.store.templates[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (r mockTemplateRepo) ListActiveByTeacher(_ context.Context, teacherID uuid.UUID) ([]*model.TeacherScheduleTemplate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*model.TeacherScheduleTemplate
	for _, t := range r.store.templates {
		if t.TeacherID == teacherID && t.IsActive {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r mockTemplateRepo) Deactivate(_ context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.templates[id]
	if !ok || !t.IsActive {
		return false, nil
	}
	t.IsActive = false
	return true, nil
}

// ── Speaking slots ──

type mockSlotRepo struct{ store *memStore }

func (r mockSlotRepo) CreateBatch(_ context.Context, slots []*model.SpeakingSlot) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.batchCalls++
	if r.store.batchErr != nil {
		return 0, r.store.batchErr
	}
	for _, s := range slots {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		r.store.slots[s.ID] = cloneSlot(s)
	}
	return int64(len(slots)), nil
}

func (r mockSlotRepo) GetByID(_ context.Context, id uuid.UUID) (*model.SpeakingSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.slots[id]; ok {
		return cloneSlot(s), nil
	}
	return nil, nil
}

func (r mockSlotRepo) FindActiveBooking(_ context.Context, sessionID, studentID, excludeSlotID uuid.UUID) (*model.SpeakingSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s := r.activeBooking(sessionID, studentID, excludeSlotID); s != nil {
		return cloneSlot(s), nil
	}
	return nil, nil
}

func (r mockSlotRepo) activeBooking(sessionID, studentID, excludeSlotID uuid.UUID) *model.SpeakingSlot {
	for _, s := range r.store.slots {
		if s.ID == excludeSlotID || s.StudentID == nil || s.TestSessionID == nil {
			continue
		}
		if *s.TestSessionID == sessionID && *s.StudentID == studentID &&
			(s.Status == model.SlotStatusBooked || s.Status == model.SlotStatusCompleted) {
			return s
		}
	}
	return nil
}

// Book mirrors the conditional UPDATE and the partial unique index.
func (r mockSlotRepo) Book(_ context.Context, slotID, studentID, sessionID uuid.UUID) (*model.SpeakingSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.slots[slotID]
	if !ok || s.Status != model.SlotStatusAvailable {
		return nil, nil
	}
	if r.activeBooking(sessionID, studentID, slotID) != nil {
		return nil, repository.ErrDuplicateBooking
	}
	s.Status = model.SlotStatusBooked
	s.StudentID, s.TestSessionID = &studentID, &sessionID
	return cloneSlot(s), nil
}

func (r mockSlotRepo) Complete(_ context.Context, slotID, sessionID uuid.UUID, result model.SpeakingResult) (*model.SpeakingSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.slots[slotID]
	if !ok || !s.BelongsToSession(sessionID) {
		return nil, nil
	}
	s.Status = model.SlotStatusCompleted
	s.Score, s.Feedback = result.Score, result.Feedback
	s.MCQLevel, s.SpeakingLevel, s.FinalLevel = &result.MCQLevel, &result.SpeakingLevel, &result.FinalLevel
	return cloneSlot(s), nil
}

func (r mockSlotRepo) Release(_ context.Context, slotID, sessionID uuid.UUID) (*model.SpeakingSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.slots[slotID]
	if !ok || !s.BelongsToSession(sessionID) || s.Status != model.SlotStatusBooked {
		return nil, nil
	}
	s.Status = model.SlotStatusAvailable
	s.StudentID, s.TestSessionID, s.Score, s.Feedback = nil, nil, nil, nil
	s.MCQLevel, s.SpeakingLevel, s.FinalLevel = nil, nil, nil
	return cloneSlot(s), nil
}

func (r mockSlotRepo) TransitionStatus(_ context.Context, slotID uuid.UUID, from, to model.SlotStatus) (*model.SpeakingSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.slots[slotID]
	if !ok || s.Status != from || s.StudentID != nil {
		return nil, nil
	}
	s.Status = to
	return cloneSlot(s), nil
}

func (r mockSlotRepo) ListAvailable(_ context.Context, from, to *time.Time) ([]*model.SpeakingSlot, error) {
	return r.filter(func(s *model.SpeakingSlot) bool {
		if s.Status != model.SlotStatusAvailable {
			return false
		}
		if from != nil && s.SlotDate.Before(*from) {
			return false
		}
		return to == nil || !s.SlotDate.After(*to)
	}), nil
}

func (r mockSlotRepo) ListAll(_ context.Context) ([]*model.SpeakingSlot, error) {
	return r.filter(func(*model.SpeakingSlot) bool { return true }), nil
}

func (r mockSlotRepo) ListByTeacher(_ context.Context, teacherID uuid.UUID) ([]*model.SpeakingSlot, error) {
	return r.filter(func(s *model.SpeakingSlot) bool { return s.TeacherID == teacherID }), nil
}

func (r mockSlotRepo) CountByTeacherAndDate(_ context.Context, teacherID uuid.UUID, date time.Time) (int, error) {
	return len(r.filter(func(s *model.SpeakingSlot) bool {
		return s.TeacherID == teacherID && s.SlotDate.Equal(date)
	})), nil
}

func (r mockSlotRepo) filter(keep func(*model.SpeakingSlot) bool) []*model.SpeakingSlot {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*model.SpeakingSlot
	for _, s := range r.store.slots {
		if keep(s) {
			out = append(out, cloneSlot(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.SlotDate.Equal(b.SlotDate) {
			return a.SlotDate.Before(b.SlotDate)
		}
		if a.SlotTime != b.SlotTime {
			return a.SlotTime < b.SlotTime
		}
		return a.ID.String() < b.ID.String()
	})
	return out
}

// ── Notifier ──

type notification struct {
	event  string
	slotID uuid.UUID
}

type chanNotifier struct {
	events chan notification
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{events: make(chan notification, 16)}
}

func (n *chanNotifier) SlotBooked(_ context.Context, slot *model.SpeakingSlot, _ *model.Student) error {
	n.events <- notification{event: "booked", slotID: slot.ID}
	return nil
}

func (n *chanNotifier) SlotCancelled(_ context.Context, slot *model.SpeakingSlot) error {
	n.events <- notification{event: "cancelled", slotID: slot.ID}
	return nil
}
