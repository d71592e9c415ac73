package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
	"github.com/unclebandit/mailing-service/internal/model"
	"github.com/unclebandit/mailing-service/internal/repository"
	"github.com/unclebandit/mailing-service/internal/service"
)

var errDiskFull = errors.New("pq: could not extend file: No space left on device")

// memStore backs every repository fake in this package.
type memStore struct {
	mu        sync.Mutex
	nextID    int
	campaigns map[int]*model.Campaign
	clients   map[int]model.Client
	messages  map[int]model.Message
	links     map[int][]int
	attempts  []model.DeliveryAttempt

	statusWrites []string
	recordErr    error
	statusErr    error
}

func newMemStore() *memStore {
	return &memStore{
		campaigns: map[int]*model.Campaign{},
		clients:   map[int]model.Client{},
		messages:  map[int]model.Message{},
		links:     map[int][]int{},
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *memStore) addMessage(owner int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.messages[id] = model.Message{ID: id, Subject: "Spring sale", Body: "Everything half price", OwnerID: &owner}
	return id
}

func (s *memStore) addClient(owner int, email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.clients[id] = model.Client{ID: id, Email: email, FullName: email, OwnerID: &owner}
	return id
}

// addCampaign stores c with the given recipients and returns its id.
func (s *memStore) addCampaign(c model.Campaign, clientIDs ...int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.campaigns[c.ID] = &c
	s.links[c.ID] = append([]int(nil), clientIDs...)
	return c.ID
}

func (s *memStore) link(campaignID, clientID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[campaignID] = append(s.links[campaignID], clientID)
}

func (s *memStore) status(id int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.campaigns[id].Status
}

func (s *memStore) attemptsFor(id int) []model.DeliveryAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.DeliveryAttempt{}
	for _, a := range s.attempts {
		if a.CampaignID == id {
			out = append(out, a)
		}
	}
	return out
}

// ---- campaigns ----

type fakeCampaigns struct{ *memStore }

func (f fakeCampaigns) Create(_ context.Context, c *model.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.id()
	cp := *c
	f.campaigns[c.ID] = &cp
	f.links[c.ID] = append([]int(nil), c.ClientIDs...)
	return nil
}

func (f fakeCampaigns) Update(_ context.Context, c *model.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.campaigns[c.ID]
	if !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	cur.StartTime, cur.EndTime, cur.MessageID = c.StartTime, c.EndTime, c.MessageID
	f.links[c.ID] = append([]int(nil), c.ClientIDs...)
	return nil
}

func (f fakeCampaigns) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(f.campaigns, id)
	delete(f.links, id)
	return nil
}

func (f fakeCampaigns) GetByID(_ context.Context, id int) (*model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	cp.ClientIDs = append([]int(nil), f.links[id]...)
	return &cp, nil
}

func (f fakeCampaigns) ListCampaigns(_ context.Context, flt repository.CampaignFilter) ([]*model.Campaign, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := []*model.Campaign{}
	for _, c := range f.campaigns {
		if flt.OwnerID != nil && !c.OwnedBy(*flt.OwnerID) {
			continue
		}
		if flt.ActiveOnly && !c.IsActive {
			continue
		}
		if flt.Status != "" && c.Status != flt.Status {
			continue
		}
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if flt.Limit > 0 {
		if flt.Offset >= len(all) {
			return []*model.Campaign{}, total, nil
		}
		end := flt.Offset + flt.Limit
		if end > len(all) {
			end = len(all)
		}
		all = all[flt.Offset:end]
	}
	return all, total, nil
}

func (f fakeCampaigns) UpdateStatus(_ context.Context, id int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	c, ok := f.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	if c.Status == model.StatusDisabled && status != model.StatusDisabled {
		return appErrors.ErrCampaignDisabled
	}
	c.Status = status
	f.statusWrites = append(f.statusWrites, status)
	return nil
}

func (f fakeCampaigns) Disable(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.IsActive = false
	c.Status = model.StatusDisabled
	return nil
}

func (f fakeCampaigns) ListDispatchable(_ context.Context, now time.Time) ([]*model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Campaign{}
	for _, c := range f.campaigns {
		if c.IsActive && !c.IsTerminal() && !now.Before(c.StartTime) && !now.After(c.EndTime) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeCampaigns) SetClients(_ context.Context, id int, clientIDs []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[id] = append([]int(nil), clientIDs...)
	return nil
}

func (f fakeCampaigns) CountRecipients(_ context.Context, ids []int) (map[int]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int]int{}
	for _, id := range ids {
		if n := len(f.links[id]); n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

// ---- clients ----

type fakeClients struct{ *memStore }

func (f fakeClients) Create(_ context.Context, c *model.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.clients {
		if existing.Email == c.Email {
			return appErrors.NewValidation("email", "already exists")
		}
	}
	c.ID = f.id()
	f.clients[c.ID] = *c
	return nil
}

func (f fakeClients) Update(_ context.Context, c *model.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c.ID]; !ok {
		return appErrors.NewClientNotFound(c.ID)
	}
	f.clients[c.ID] = *c
	return nil
}

func (f fakeClients) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[id]; !ok {
		return appErrors.NewClientNotFound(id)
	}
	delete(f.clients, id)
	return nil
}

func (f fakeClients) GetByID(_ context.Context, id int) (*model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return nil, appErrors.NewClientNotFound(id)
	}
	return &c, nil
}

func (f fakeClients) ListAll(_ context.Context) ([]model.Client, error) {
	return f.filter(func(model.Client) bool { return true }), nil
}

func (f fakeClients) ListVisibleTo(_ context.Context, userID int) ([]model.Client, error) {
	return f.filter(func(c model.Client) bool { return f.visible(c, userID) }), nil
}

func (f fakeClients) VisibleTo(_ context.Context, clientID, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[clientID]
	return ok && f.visible(c, userID), nil
}

// visible expects f.mu to be held.
func (f fakeClients) visible(c model.Client, userID int) bool {
	if c.OwnerID != nil && *c.OwnerID == userID {
		return true
	}
	for campaignID, ids := range f.links {
		m, ok := f.campaigns[campaignID]
		if !ok || m.OwnerID == nil || *m.OwnerID != userID {
			continue
		}
		for _, id := range ids {
			if id == c.ID {
				return true
			}
		}
	}
	return false
}

func (f fakeClients) ListForCampaign(_ context.Context, campaignID int) ([]model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Client{}
	for _, id := range f.links[campaignID] {
		if c, ok := f.clients[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f fakeClients) ExistingIDs(_ context.Context, ids []int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []int{}
	for _, id := range ids {
		if _, ok := f.clients[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f fakeClients) filter(keep func(model.Client) bool) []model.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Client{}
	for _, c := range f.clients {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- messages ----

type fakeMessages struct{ *memStore }

func (f fakeMessages) Create(_ context.Context, m *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = f.id()
	f.messages[m.ID] = *m
	return nil
}

func (f fakeMessages) Update(_ context.Context, m *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[m.ID]; !ok {
		return appErrors.NewMessageNotFound(m.ID)
	}
	f.messages[m.ID] = *m
	return nil
}

func (f fakeMessages) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return appErrors.NewMessageNotFound(id)
	}
	delete(f.messages, id)
	return nil
}

func (f fakeMessages) GetByID(_ context.Context, id int) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, appErrors.NewMessageNotFound(id)
	}
	return &m, nil
}

func (f fakeMessages) ListAll(_ context.Context) ([]model.Message, error) {
	return f.filter(func(model.Message) bool { return true }), nil
}

func (f fakeMessages) ListVisibleTo(_ context.Context, userID int) ([]model.Message, error) {
	return f.filter(func(m model.Message) bool { return m.OwnerID != nil && *m.OwnerID == userID }), nil
}

func (f fakeMessages) filter(keep func(model.Message) bool) []model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Message{}
	for _, m := range f.messages {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- attempts ----

type fakeAttempts struct{ *memStore }

func (f fakeAttempts) Record(_ context.Context, a *model.DeliveryAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	a.ID = f.id()
	f.attempts = append(f.attempts, *a)
	return nil
}

func (f fakeAttempts) ListByCampaign(ctx context.Context, id int) ([]model.DeliveryAttempt, error) {
	return f.attemptsFor(id), nil
}

func (f fakeAttempts) ListByCampaigns(_ context.Context, ids []int, status string) ([]model.DeliveryAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[int]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []model.DeliveryAttempt{}
	for _, a := range f.attempts {
		if want[a.CampaignID] && (status == "" || a.Status == status) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f fakeAttempts) CountByStatus(_ context.Context, ids []int) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[int]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := map[string]int{model.AttemptSuccessful: 0, model.AttemptFailed: 0}
	for _, a := range f.attempts {
		if want[a.CampaignID] {
			out[a.Status]++
		}
	}
	return out, nil
}

var (
	_ repository.CampaignRepositoryInterface = fakeCampaigns{}
	_ repository.ClientRepositoryInterface   = fakeClients{}
	_ repository.MessageRepositoryInterface  = fakeMessages{}
	_ repository.AttemptRepositoryInterface  = fakeAttempts{}
)

// fixedClock pins the invocation time.
func fixedClock(t time.Time) service.Clock {
	return service.ClockFunc(func() time.Time { return t })
}
