package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"checkinflow/internal/domain"
)

// fakeTx runs fn directly and counts calls. It does not roll back.
type fakeTx struct {
	calls  int
	active bool
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	f.active = true
	defer func() { f.active = false }()
	return fn(ctx)
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID      map[string]*domain.Event
	nextID    int
	createErr error
	failAfter int // if > 0, Create fails once this many events exist
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		nextID: 1,
	}
}

func (f *fakeEventRepo) add(e *domain.Event) *domain.Event {
	f.byID[e.ID] = e
	return e
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.failAfter > 0 && len(f.byID) >= f.failAfter {
		return fmt.Errorf("insert failed")
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		return e.Clone(), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	var out []*domain.EventWithCount
	for _, e := range f.byID {
		if filter.CreatedBy != "" && e.CreatedBy != filter.CreatedBy {
			continue
		}
		out = append(out, &domain.EventWithCount{Event: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeEventRepo) ListPublic(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.Visibility == domain.VisibilityPublic {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) SetQRCodeURL(ctx context.Context, eventID, url string) error {
	e, ok := f.byID[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	e.QRCodeURL = &url
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeAttendeeRepo is an in-memory AttendeeRepository for tests.
type fakeAttendeeRepo struct {
	byID      map[string]*domain.Attendee
	nextID    int
	updates   int
	updateErr error
}

func newFakeAttendeeRepo() *fakeAttendeeRepo {
	return &fakeAttendeeRepo{byID: make(map[string]*domain.Attendee), nextID: 1}
}

func (f *fakeAttendeeRepo) add(a *domain.Attendee) *domain.Attendee {
	f.byID[a.ID] = a
	return a
}

func (f *fakeAttendeeRepo) Create(ctx context.Context, a *domain.Attendee) error {
	for _, existing := range f.byID {
		if existing.LineUserID == a.LineUserID {
			return domain.ErrDuplicate
		}
	}
	a.ID = fmt.Sprintf("att-%d", f.nextID)
	f.nextID++
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAttendeeRepo) GetByID(ctx context.Context, id string) (*domain.Attendee, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAttendeeRepo) GetByLineUserID(ctx context.Context, lineUserID string) (*domain.Attendee, error) {
	for _, a := range f.byID {
		if a.LineUserID == lineUserID {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAttendeeRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Attendee, int, error) {
	var out []*domain.Attendee
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (f *fakeAttendeeRepo) Update(ctx context.Context, a *domain.Attendee) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[a.ID]; !ok {
		return domain.ErrNotFound
	}
	f.updates++
	f.byID[a.ID] = a
	return nil
}

// fakeAttendanceRepo is an in-memory AttendanceRepository keyed by event and attendee.
type fakeAttendanceRepo struct {
	records   map[string]*domain.AttendanceRecord
	nextID    int
	createErr error
	writes    int
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]*domain.AttendanceRecord), nextID: 1}
}

func attendanceKey(eventID, attendeeID string) string {
	return eventID + "/" + attendeeID
}

func (f *fakeAttendanceRepo) add(r *domain.AttendanceRecord) *domain.AttendanceRecord {
	f.records[attendanceKey(r.EventID, r.AttendeeID)] = r
	return r
}

func (f *fakeAttendanceRepo) Create(ctx context.Context, r *domain.AttendanceRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	key := attendanceKey(r.EventID, r.AttendeeID)
	if _, ok := f.records[key]; ok {
		return domain.ErrDuplicateAttendance
	}
	r.ID = fmt.Sprintf("rec-%d", f.nextID)
	f.nextID++
	f.writes++
	f.records[key] = r
	return nil
}

func (f *fakeAttendanceRepo) GetByEventAndAttendee(ctx context.Context, eventID, attendeeID string) (*domain.AttendanceRecord, error) {
	r, ok := f.records[attendanceKey(eventID, attendeeID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeAttendanceRepo) MarkCheckedOut(ctx context.Context, r *domain.AttendanceRecord) error {
	key := attendanceKey(r.EventID, r.AttendeeID)
	stored, ok := f.records[key]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.CheckoutTime != nil {
		return domain.ErrAlreadyComplete
	}
	f.writes++
	c := *r
	f.records[key] = &c
	return nil
}

func (f *fakeAttendanceRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.AttendanceWithAttendee, error) {
	var out []*domain.AttendanceWithAttendee
	for _, r := range f.records {
		if r.EventID == eventID {
			out = append(out, &domain.AttendanceWithAttendee{AttendanceRecord: r})
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) CountByEventID(ctx context.Context, eventID string) (*domain.EventStats, error) {
	stats := &domain.EventStats{}
	for _, r := range f.records {
		if r.EventID != eventID {
			continue
		}
		stats.Total++
		if r.Status == domain.StatusCheckedOut {
			stats.CheckedOut++
		} else {
			stats.CheckedIn++
		}
	}
	return stats, nil
}

// fakeQR returns the encoded content as the PNG payload.
type fakeQR struct {
	contents []string
}

func (f *fakeQR) PNG(content string) ([]byte, error) {
	f.contents = append(f.contents, content)
	return []byte(content), nil
}

// fakeStorage records stored objects and returns "mem://" URLs.
type fakeStorage struct {
	objects  map[string][]byte
	err      error
	tx       *fakeTx // when set, puts made inside a transaction are counted
	putsInTx int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if f.tx != nil && f.tx.active {
		f.putsInTx++
	}
	if f.err != nil {
		return "", f.err
	}
	f.objects[key] = data
	return "mem://" + key, nil
}

// fakeExporter renders one line per record.
type fakeExporter struct{}

func (fakeExporter) Export(format domain.ExportFormat, event *domain.Event, records []*domain.AttendanceWithAttendee, loc *time.Location) ([]byte, error) {
	return []byte(fmt.Sprintf("%s:%s:%d", format, event.ID, len(records))), nil
}

// fakeTokenIssuer encodes subject and role into the token string.
type fakeTokenIssuer struct {
	err    error
	issued []string
}

func (f *fakeTokenIssuer) Issue(subject string, role domain.Role, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	tok := fmt.Sprintf("%s|%s|%s", subject, role, expiry)
	f.issued = append(f.issued, tok)
	return tok, nil
}

// fakeHasher prefixes passwords instead of hashing them.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return fmt.Errorf("mismatch")
	}
	return nil
}

// fakeLine returns a fixed identity for every code except "bad".
type fakeLine struct {
	userID string
}

func (f *fakeLine) AuthCodeURL(state string) string {
	return "https://line.example/authorize?state=" + state
}

func (f *fakeLine) Exchange(ctx context.Context, code string) (*domain.LineIdentity, error) {
	if code == "bad" {
		return nil, fmt.Errorf("invalid grant")
	}
	return &domain.LineIdentity{UserID: f.userID, DisplayName: "LINE User"}, nil
}

// fakeAdminRepo is an in-memory AdminRepository for tests.
type fakeAdminRepo struct {
	byID   map[string]*domain.Admin
	nextID int
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{byID: make(map[string]*domain.Admin), nextID: 1}
}

func (f *fakeAdminRepo) add(a *domain.Admin) *domain.Admin {
	f.byID[a.ID] = a
	return a
}

func (f *fakeAdminRepo) Create(ctx context.Context, a *domain.Admin) error {
	for _, existing := range f.byID {
		if existing.Username == a.Username {
			return domain.ErrDuplicate
		}
	}
	a.ID = fmt.Sprintf("adm-%d", f.nextID)
	f.nextID++
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAdminRepo) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAdminRepo) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	for _, a := range f.byID {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAdminRepo) List(ctx context.Context) ([]*domain.Admin, error) {
	var out []*domain.Admin
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAdminRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	a, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.PasswordHash = passwordHash
	return nil
}

func (f *fakeAdminRepo) SetActive(ctx context.Context, id string, active bool) error {
	a, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.IsActive = active
	return nil
}

func (f *fakeAdminRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeTemplateRepo is an in-memory TemplateRepository for tests.
type fakeTemplateRepo struct {
	byID   map[string]*domain.RegistrationTemplate
	nextID int
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{byID: make(map[string]*domain.RegistrationTemplate), nextID: 1}
}

func (f *fakeTemplateRepo) add(t *domain.RegistrationTemplate) *domain.RegistrationTemplate {
	f.byID[t.ID] = t
	return t
}

func (f *fakeTemplateRepo) Create(ctx context.Context, t *domain.RegistrationTemplate) error {
	t.ID = fmt.Sprintf("tpl-%d", f.nextID)
	f.nextID++
	f.byID[t.ID] = t
	return nil
}

func (f *fakeTemplateRepo) GetByID(ctx context.Context, id string) (*domain.RegistrationTemplate, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTemplateRepo) ListVisible(ctx context.Context, ownerID string, all bool) ([]*domain.RegistrationTemplate, error) {
	var out []*domain.RegistrationTemplate
	for _, t := range f.byID {
		if all || t.IsPublic || (t.CreatedByAdminID != nil && *t.CreatedByAdminID == ownerID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTemplateRepo) Update(ctx context.Context, t *domain.RegistrationTemplate) error {
	if _, ok := f.byID[t.ID]; !ok {
		return domain.ErrNotFound
	}
	f.byID[t.ID] = t
	return nil
}

func (f *fakeTemplateRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}
