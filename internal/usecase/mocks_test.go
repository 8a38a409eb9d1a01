package usecase

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"clinic-scheduling/internal/domain/entity"
	"clinic-scheduling/internal/infrastructure/database"
	"clinic-scheduling/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeTransactor runs units of work directly against the in-memory fakes.
type fakeTransactor struct{}

func (fakeTransactor) DB(context.Context) *gorm.DB { return nil }

func (fakeTransactor) WithinTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// fakeAppointmentRepo enforces the partial unique index on
// (doctor_id, start_time) for scheduled and completed rows.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]entity.Appointment
	names        map[uuid.UUID]string

	failWith error
	creates  atomic.Int32
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		appointments: make(map[uuid.UUID]entity.Appointment),
		names:        make(map[uuid.UUID]string),
	}
}

func slotIndexViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: database.AppointmentSlotIndex}
}

func (r *fakeAppointmentRepo) occupiedLocked(doctorID uuid.UUID, start time.Time, excludeID uuid.UUID) bool {
	for id, a := range r.appointments {
		if id == excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.StartTime.Equal(start) && a.Status.OccupiesSlot() {
			return true
		}
	}
	return false
}

func (r *fakeAppointmentRepo) put(a entity.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments[a.ID] = a
}

func (r *fakeAppointmentRepo) get(id uuid.UUID) entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appointments[id]
}

func (r *fakeAppointmentRepo) Create(_ context.Context, _ *gorm.DB, a *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if a.Status.OccupiesSlot() && r.occupiedLocked(a.DoctorID, a.StartTime, uuid.Nil) {
		return slotIndexViolation()
	}
	r.appointments[a.ID] = *a
	r.creates.Add(1)
	return nil
}

func (r *fakeAppointmentRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	a, ok := r.appointments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *fakeAppointmentRepo) ExistsOccupying(_ context.Context, _ *gorm.DB, doctorID uuid.UUID, start time.Time, excludeID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.occupiedLocked(doctorID, start, excludeID), nil
}

func (r *fakeAppointmentRepo) FindOccupyingBetween(_ context.Context, _ *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	return r.filter(func(a entity.Appointment) bool {
		return a.DoctorID == doctorID && !a.StartTime.Before(from) && a.StartTime.Before(to) && a.Status.OccupiesSlot()
	}), nil
}

func (r *fakeAppointmentRepo) FindForDoctorDay(_ context.Context, _ *gorm.DB, f entity.DoctorDayFilter) ([]entity.Appointment, error) {
	return r.filter(func(a entity.Appointment) bool {
		if a.DoctorID != f.DoctorID || a.StartTime.Before(f.From) || !a.StartTime.Before(f.To) {
			return false
		}
		return f.PatientName == "" || containsFold(r.names[a.PatientID], f.PatientName)
	}), nil
}

func (r *fakeAppointmentRepo) FindForPatient(_ context.Context, _ *gorm.DB, f entity.PatientAppointmentFilter) ([]entity.Appointment, error) {
	return r.filter(func(a entity.Appointment) bool {
		if a.PatientID != f.PatientID {
			return false
		}
		if f.Status != "" && a.Status != f.Status {
			return false
		}
		return f.DoctorName == "" || containsFold(r.names[a.DoctorID], f.DoctorName)
	}), nil
}

func (r *fakeAppointmentRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return 0, nil
	}
	a.Status = to
	r.appointments[id] = a
	return 1, nil
}

func (r *fakeAppointmentRepo) Reschedule(_ context.Context, _ *gorm.DB, updated *entity.Appointment, from entity.AppointmentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[updated.ID]
	if !ok || a.Status != from {
		return 0, nil
	}
	if updated.Status.OccupiesSlot() && r.occupiedLocked(updated.DoctorID, updated.StartTime, updated.ID) {
		return 0, slotIndexViolation()
	}
	a.DoctorID = updated.DoctorID
	a.StartTime = updated.StartTime
	a.Status = updated.Status
	r.appointments[a.ID] = a
	return 1, nil
}

func (r *fakeAppointmentRepo) CancelScheduledForDoctor(_ context.Context, _ *gorm.DB, doctorID uuid.UUID, from time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.appointments {
		if a.DoctorID == doctorID && a.Status == entity.AppointmentStatusScheduled && !a.StartTime.Before(from) {
			a.Status = entity.AppointmentStatusCancelled
			r.appointments[id] = a
			n++
		}
	}
	return n, nil
}

func (r *fakeAppointmentRepo) filter(keep func(entity.Appointment) bool) []entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

type fakeDoctorRepo struct {
	mu      sync.Mutex
	doctors map[uuid.UUID]entity.DoctorProfile
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{doctors: make(map[uuid.UUID]entity.DoctorProfile)}
}

func (r *fakeDoctorRepo) add(name, specialty string, labels ...string) entity.DoctorProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := true
	id := uuid.New()
	d := entity.DoctorProfile{
		UserID:         id,
		Specialization: specialty,
		SlotLabels:     labels,
		User:           entity.User{ID: id, FullName: name, RoleID: entity.RoleIDDoctor, IsActive: &active},
	}
	r.doctors[id] = d
	return d
}

func (r *fakeDoctorRepo) Create(_ context.Context, _ *gorm.DB, profile *entity.DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors[profile.UserID] = *profile
	return nil
}

func (r *fakeDoctorRepo) FindByUserID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*entity.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *fakeDoctorRepo) FindAll(_ context.Context, _ *gorm.DB, f entity.DoctorFilter) ([]entity.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.DoctorProfile
	for _, d := range r.doctors {
		if !d.User.Active() {
			continue
		}
		if f.Name != "" && !containsFold(d.User.FullName, f.Name) {
			continue
		}
		if f.Specialty != "" && !containsFold(d.Specialization, f.Specialty) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.FullName < out[j].User.FullName })
	return out, nil
}

func (r *fakeDoctorRepo) UpdateSlots(_ context.Context, _ *gorm.DB, id uuid.UUID, labels entity.SlotLabels) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return 0, nil
	}
	d.SlotLabels = labels
	r.doctors[id] = d
	return 1, nil
}

func (r *fakeDoctorRepo) Update(_ context.Context, _ *gorm.DB, profile *entity.DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[profile.UserID]
	if !ok {
		return nil
	}
	d.User.FullName = profile.User.FullName
	d.Specialization = profile.Specialization
	d.Biography = profile.Biography
	r.doctors[profile.UserID] = d
	return nil
}

func (r *fakeDoctorRepo) SetActive(_ context.Context, _ *gorm.DB, id uuid.UUID, active bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return 0, nil
	}
	d.User.IsActive = &active
	r.doctors[id] = d
	return 1, nil
}

type fakePatientRepo struct {
	mu       sync.Mutex
	patients map[string]entity.PatientProfile
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[string]entity.PatientProfile)}
}

func (r *fakePatientRepo) add(email, name string) entity.PatientProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	p := entity.PatientProfile{
		UserID: id,
		User:   entity.User{ID: id, Email: email, FullName: name, RoleID: entity.RoleIDPatient},
	}
	r.patients[email] = p
	return p
}

func (r *fakePatientRepo) Create(_ context.Context, _ *gorm.DB, profile *entity.PatientProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := profile.User.Email
	if key == "" {
		key = profile.UserID.String()
	}
	r.patients[key] = *profile
	return nil
}

func (r *fakePatientRepo) FindByUserID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*entity.PatientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.UserID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakePatientRepo) FindByEmail(_ context.Context, _ *gorm.DB, email string) (*entity.PatientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[email]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *fakePatientRepo) Update(_ context.Context, _ *gorm.DB, profile *entity.PatientProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, p := range r.patients {
		if p.UserID == profile.UserID {
			p.User.FullName = profile.User.FullName
			p.PhoneNumber = profile.PhoneNumber
			p.Address = profile.Address
			r.patients[key] = p
		}
	}
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]entity.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	r.users[user.Email] = *user
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, _ *gorm.DB, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

type fakeRoleRepo struct{}

func (fakeRoleRepo) FindByName(_ context.Context, _ *gorm.DB, name entity.UserRole) (*entity.Role, error) {
	ids := map[entity.UserRole]int{
		entity.RoleAdmin:   entity.RoleIDAdmin,
		entity.RoleDoctor:  entity.RoleIDDoctor,
		entity.RolePatient: entity.RoleIDPatient,
	}
	id, ok := ids[name]
	if !ok {
		return nil, nil
	}
	return &entity.Role{ID: id, RoleName: string(name)}, nil
}

type fakeAuditService struct {
	mu      sync.Mutex
	actions []string
}

func (s *fakeAuditService) Record(_ context.Context, _ *gorm.DB, _ uuid.UUID, action string, _ *uuid.UUID, _, _ interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
}

func (s *fakeAuditService) History(context.Context, *gorm.DB, uuid.UUID) ([]entity.AuditLog, error) {
	return nil, nil
}

func (s *fakeAuditService) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actions...)
}

// fakeSlotCache never caches; it records invalidations.
type fakeSlotCache struct {
	mu      sync.Mutex
	days    []string
	doctors []uuid.UUID
	loads   atomic.Int32
}

func (c *fakeSlotCache) GetOrLoad(ctx context.Context, _ uuid.UUID, _ string, load service.SlotLoader) ([]string, error) {
	c.loads.Add(1)
	return load(ctx)
}

func (c *fakeSlotCache) InvalidateDay(_ context.Context, doctorID uuid.UUID, dates ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range dates {
		c.days = append(c.days, doctorID.String()+"@"+d)
	}
}

func (c *fakeSlotCache) InvalidateDoctor(_ context.Context, doctorID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doctors = append(c.doctors, doctorID)
}

func (c *fakeSlotCache) invalidatedDays() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.days...)
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]time.Duration
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]time.Duration)}
}

func (s *fakeTokenStore) Save(_ context.Context, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID.String()+":"+tokenID] = ttl
	return nil
}

func (s *fakeTokenStore) Exists(_ context.Context, userID uuid.UUID, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[userID.String()+":"+tokenID]
	return ok, nil
}

func (s *fakeTokenStore) Revoke(_ context.Context, userID uuid.UUID, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID.String()+":"+tokenID)
	return nil
}

type fixture struct {
	appointments *fakeAppointmentRepo
	doctors      *fakeDoctorRepo
	patients     *fakePatientRepo
	users        *fakeUserRepo
	audit        *fakeAuditService
	cache        *fakeSlotCache
	tokens       *fakeTokenStore

	guard        AuthorizationGuard
	availability AvailabilityUsecase
	booking      *appointmentUsecase
	doctorUC     *doctorUsecase
	patientUC    PatientUsecase

	now time.Time
}

func newFixture() *fixture {
	f := &fixture{
		appointments: newFakeAppointmentRepo(),
		doctors:      newFakeDoctorRepo(),
		patients:     newFakePatientRepo(),
		users:        newFakeUserRepo(),
		audit:        &fakeAuditService{},
		cache:        &fakeSlotCache{},
		tokens:       newFakeTokenStore(),
		now:          time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC),
	}

	log := testLogger()
	tx := fakeTransactor{}
	f.guard = NewAuthorizationGuard(tx, log, f.patients)
	f.availability = NewAvailabilityUsecase(tx, log, f.doctors, f.appointments, f.cache, time.UTC)
	f.booking = NewAppointmentUsecase(tx, log, f.guard, f.availability, f.appointments, f.audit, f.cache, time.UTC).(*appointmentUsecase)
	f.booking.now = func() time.Time { return f.now }
	f.doctorUC = NewDoctorUsecase(tx, log, f.guard, f.users, f.doctors, f.appointments, f.audit, f.cache).(*doctorUsecase)
	f.doctorUC.now = func() time.Time { return f.now }
	f.patientUC = NewPatientUsecase(tx, log, f.guard, f.patients, f.audit)
	return f
}

func patientClaims(p entity.PatientProfile) *entity.Claims {
	return &entity.Claims{UserID: p.UserID, Email: p.User.Email, Role: entity.RolePatient, TokenID: "t"}
}

func doctorClaims(d entity.DoctorProfile) *entity.Claims {
	return &entity.Claims{UserID: d.UserID, Email: d.User.Email, Role: entity.RoleDoctor, TokenID: "t"}
}

func adminClaims() *entity.Claims {
	return &entity.Claims{UserID: uuid.New(), Email: "admin@clinic.test", Role: entity.RoleAdmin, TokenID: "t"}
}

// scheduled stores an appointment directly, bypassing the usecase.
func (f *fixture) scheduled(doctor entity.DoctorProfile, patient entity.PatientProfile, start time.Time, status entity.AppointmentStatus) entity.Appointment {
	a := entity.Appointment{
		ID:        uuid.New(),
		DoctorID:  doctor.UserID,
		PatientID: patient.UserID,
		StartTime: start,
		Status:    status,
	}
	f.appointments.put(a)
	f.appointments.mu.Lock()
	f.appointments.names[patient.UserID] = patient.User.FullName
	f.appointments.names[doctor.UserID] = doctor.User.FullName
	f.appointments.mu.Unlock()
	return a
}
