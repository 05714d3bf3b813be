package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/ecampus-api/internal/models"
	"github.com/noah-isme/ecampus-api/internal/repository"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

// fakeAccountRepo keeps accounts in memory and enforces the same unique and
// conditional-update rules as the SQL repository.
type fakeAccountRepo struct {
	mu        sync.Mutex
	accounts  map[string]*models.Account
	err       error
	approveFn func(trackID string) error
	// profiles receives the student profile written by Approve.
	profiles *fakeStudentRepo
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*models.Account)}
}

func (f *fakeAccountRepo) clone(a *models.Account) *models.Account {
	c := *a
	return &c
}

func (f *fakeAccountRepo) find(match func(*models.Account) bool) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, a := range f.accounts {
		if match(a) {
			return f.clone(a), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAccountRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return a.ID == id })
}

func (f *fakeAccountRepo) FindByTrackID(ctx context.Context, trackID string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return a.TrackID == trackID })
}

func (f *fakeAccountRepo) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return a.Username != nil && *a.Username == username })
}

func (f *fakeAccountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.FindByUsername(ctx, username)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeAccountRepo) usernameTakenLocked(username string) bool {
	for _, a := range f.accounts {
		if a.Username != nil && *a.Username == username {
			return true
		}
	}
	return false
}

func (f *fakeAccountRepo) Create(ctx context.Context, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	for _, a := range f.accounts {
		if a.TrackID == account.TrackID {
			return fmt.Errorf("create account: %w", repository.ErrDuplicate)
		}
	}
	if account.Username != nil && f.usernameTakenLocked(*account.Username) {
		return fmt.Errorf("create account: %w", repository.ErrDuplicate)
	}
	f.accounts[account.ID] = f.clone(account)
	return nil
}

func (f *fakeAccountRepo) ListPending(ctx context.Context) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Account
	for _, a := range f.accounts {
		if !a.IsApproved {
			out = append(out, *a)
		}
	}
	return out, f.err
}

func (f *fakeAccountRepo) ListTeachers(ctx context.Context) ([]models.TeacherContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TeacherContact
	for _, a := range f.accounts {
		if a.Role == models.RoleTeacher {
			out = append(out, models.TeacherContact{ID: a.ID, Name: a.Name, Username: a.Username, MobileNumber: a.MobileNumber})
		}
	}
	return out, f.err
}

func (f *fakeAccountRepo) Approve(ctx context.Context, trackID, username, registrationNo, profileName string, at time.Time) error {
	if f.approveFn != nil {
		if err := f.approveFn(trackID); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.TrackID != trackID || a.IsApproved {
			continue
		}
		if f.usernameTakenLocked(username) {
			return fmt.Errorf("approve account: %w", repository.ErrDuplicate)
		}
		if f.profiles != nil {
			if err := f.profiles.ensure(registrationNo, profileName); err != nil {
				return fmt.Errorf("ensure student profile: %w", err)
			}
		}
		a.Username = &username
		a.RegistrationNo = &registrationNo
		a.IsApproved = true
		a.UpdatedAt = at
		return nil
	}
	return fmt.Errorf("approve account: %w", repository.ErrNoChange)
}

func (f *fakeAccountRepo) SetPasswordIfEmpty(ctx context.Context, id, hash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok || a.PasswordHash != nil {
		return fmt.Errorf("set initial password: %w", repository.ErrNoChange)
	}
	a.PasswordHash = &hash
	return nil
}

func (f *fakeAccountRepo) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return fmt.Errorf("update password: %w", repository.ErrNoChange)
	}
	a.PasswordHash = &hash
	return nil
}

func (f *fakeAccountRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts)
}

// fakeStudentRepo stores profiles keyed by registration number.
type fakeStudentRepo struct {
	mu        sync.Mutex
	byRegNo   map[string]*models.Student
	err       error
	listCalls int
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{byRegNo: make(map[string]*models.Student)}
}

func (f *fakeStudentRepo) FindByRegistrationNo(ctx context.Context, registrationNo string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byRegNo[registrationNo]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *s
	return &c, nil
}

// ensure inserts a profile unless the registration number is taken.
func (f *fakeStudentRepo) ensure(registrationNo, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, exists := f.byRegNo[registrationNo]; !exists {
		f.byRegNo[registrationNo] = &models.Student{ID: uuid.NewString(), RegistrationNo: registrationNo, Name: name}
	}
	return nil
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byRegNo {
		if s.ID == id {
			c := *s
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, exists := f.byRegNo[student.RegistrationNo]; exists {
		return fmt.Errorf("create student: %w", repository.ErrDuplicate)
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	c := *student
	f.byRegNo[student.RegistrationNo] = &c
	return nil
}

func (f *fakeStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.err != nil {
		return nil, 0, f.err
	}
	out := []models.StudentSummary{}
	for _, st := range f.byRegNo {
		if filter.Search != "" && !strings.Contains(strings.ToLower(st.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, models.StudentSummary{Student: *st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	var oldKey string
	for key, st := range f.byRegNo {
		if st.ID == student.ID {
			oldKey = key
		}
	}
	if oldKey == "" {
		return fmt.Errorf("update student: %w", repository.ErrNoChange)
	}
	if other, exists := f.byRegNo[student.RegistrationNo]; exists && other.ID != student.ID {
		return fmt.Errorf("update student: %w", repository.ErrDuplicate)
	}
	delete(f.byRegNo, oldKey)
	c := *student
	f.byRegNo[student.RegistrationNo] = &c
	return nil
}

func (f *fakeStudentRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, st := range f.byRegNo {
		if st.ID == id {
			delete(f.byRegNo, key)
			return nil
		}
	}
	return fmt.Errorf("delete student: %w", repository.ErrNoChange)
}

func (f *fakeStudentRepo) countByRegNo(regNo string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byRegNo[regNo]; ok {
		return 1
	}
	return 0
}

type stubTokenIssuer struct {
	issued []string
}

func (s *stubTokenIssuer) Issue(accountID string, role models.Role) (string, time.Time, error) {
	s.issued = append(s.issued, accountID)
	return "token-" + accountID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

func strPtr(v string) *string { return &v }

// fakeCacheRepo is a JSON round-tripping in-memory cache.
type fakeCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{items: make(map[string][]byte)}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	raw, ok := f.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.items[key] = raw
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.items {
		if strings.HasPrefix(key, prefix) {
			delete(f.items, key)
		}
	}
	return nil
}

func (f *fakeCacheRepo) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type subjectKey struct{ studentID, subject string }

type fakeSubjectRepo struct {
	mu       sync.Mutex
	subjects map[subjectKey]models.Subject
}

func newFakeSubjectRepo() *fakeSubjectRepo {
	return &fakeSubjectRepo{subjects: make(map[subjectKey]models.Subject)}
}

func (f *fakeSubjectRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Subject{}
	for key, subject := range f.subjects {
		if key.studentID == studentID {
			out = append(out, subject)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

func (f *fakeSubjectRepo) Add(ctx context.Context, subject *models.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := subjectKey{subject.StudentID, subject.Subject}
	if _, exists := f.subjects[key]; exists {
		return fmt.Errorf("add student subject: %w", repository.ErrDuplicate)
	}
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	f.subjects[key] = *subject
	return nil
}

func (f *fakeSubjectRepo) UpdateMarks(ctx context.Context, studentID, subject string, marks float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := subjectKey{studentID, subject}
	existing, ok := f.subjects[key]
	if !ok {
		return fmt.Errorf("update student subject: %w", repository.ErrNoChange)
	}
	existing.Marks = marks
	f.subjects[key] = existing
	return nil
}

func (f *fakeSubjectRepo) Delete(ctx context.Context, studentID, subject string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := subjectKey{studentID, subject}
	if _, ok := f.subjects[key]; !ok {
		return fmt.Errorf("delete student subject: %w", repository.ErrNoChange)
	}
	delete(f.subjects, key)
	return nil
}

// fakeAttendanceRepo upserts by student and day; known restricts student
// ids the way the foreign key does.
type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]models.AttendanceRecord
	known   func(studentID string) bool
}

func newFakeAttendanceRepo(known func(string) bool) *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]models.AttendanceRecord), known: known}
}

func (f *fakeAttendanceRepo) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.AttendanceRecord{}
	for _, record := range f.records {
		if record.StudentID == studentID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (f *fakeAttendanceRepo) upsertLocked(entry models.AttendanceUpsert) (models.AttendanceRecord, error) {
	if f.known != nil && !f.known(entry.StudentID) {
		return models.AttendanceRecord{}, fmt.Errorf("upsert attendance: %w", repository.ErrMissingReference)
	}
	key := entry.StudentID + "|" + entry.Date.Format("2006-01-02")
	record, ok := f.records[key]
	if !ok {
		record = models.AttendanceRecord{ID: uuid.NewString(), StudentID: entry.StudentID, Date: entry.Date}
	}
	record.Status = entry.Status
	return record, nil
}

func (f *fakeAttendanceRepo) Upsert(ctx context.Context, entry models.AttendanceUpsert) (*models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, err := f.upsertLocked(entry)
	if err != nil {
		return nil, err
	}
	f.records[entry.StudentID+"|"+entry.Date.Format("2006-01-02")] = record
	return &record, nil
}

func (f *fakeAttendanceRepo) BulkUpsert(ctx context.Context, entries []models.AttendanceUpsert) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	staged := make(map[string]models.AttendanceRecord, len(entries))
	for _, entry := range entries {
		record, err := f.upsertLocked(entry)
		if err != nil {
			return 0, err
		}
		staged[entry.StudentID+"|"+entry.Date.Format("2006-01-02")] = record
	}
	for key, record := range staged {
		f.records[key] = record
	}
	return len(entries), nil
}

type fakeFileRemover struct {
	removed []string
}

func (f *fakeFileRemover) Delete(publicPath string) error {
	f.removed = append(f.removed, publicPath)
	return nil
}
