package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dealerscout/internal/database"
	"dealerscout/internal/errs"
	"dealerscout/internal/models"
)

type fakePlace struct {
	name    string
	address string
	phone   string
	website string
	clickFn func() error
}

type fakeSession struct {
	navErr     error
	heights    []int
	growing    bool
	heightIdx  int
	noFeed     bool
	places     []fakePlace
	current    int
	closed     int
	navigated  []string
	backs      int
	findAllErr error
}

func newFakeSession(places ...fakePlace) *fakeSession {
	return &fakeSession{heights: []int{1000}, places: places, current: -1}
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return s.navErr
}

func (s *fakeSession) FindAll(_ context.Context, xpath string) ([]Node, error) {
	if xpath != PlaceXPath {
		return nil, nil
	}
	if s.findAllErr != nil {
		return nil, s.findAllErr
	}
	nodes := make([]Node, len(s.places))
	for i := range s.places {
		nodes[i] = &placeNode{sess: s, idx: i}
	}
	return nodes, nil
}

func (s *fakeSession) Find(_ context.Context, xpath string) (Node, error) {
	switch xpath {
	case FeedXPath:
		if s.noFeed {
			return nil, ErrNotFound
		}
		return &containerNode{sess: s}, nil
	case BodyXPath:
		return &containerNode{sess: s}, nil
	}

	if s.current < 0 {
		return nil, ErrNotFound
	}
	p := s.places[s.current]
	var value string
	switch xpath {
	case NameXPath:
		value = p.name
	case AddressXPath:
		value = p.address
	case PhoneXPath:
		value = p.phone
	case WebsiteXPath:
		value = p.website
	}
	if value == "" {
		return nil, ErrNotFound
	}
	return &valueNode{value: value}, nil
}

func (s *fakeSession) Back(context.Context) error {
	s.backs++
	s.current = -1
	return nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type containerNode struct {
	sess *fakeSession
}

func (n *containerNode) Text() (string, error) { return "", nil }
func (n *containerNode) Attribute(string) (*string, error) { return nil, nil }
func (n *containerNode) Click() error { return nil }
func (n *containerNode) ScrollTo(int) error {
	n.sess.heightIdx++
	return nil
}

func (n *containerNode) ScrollHeight() (int, error) {
	if n.sess.growing {
		return 1000 * (n.sess.heightIdx + 1), nil
	}
	i := n.sess.heightIdx
	if i >= len(n.sess.heights) {
		i = len(n.sess.heights) - 1
	}
	return n.sess.heights[i], nil
}

type placeNode struct {
	sess *fakeSession
	idx  int
}

func (n *placeNode) Text() (string, error) { return n.sess.places[n.idx].name, nil }
func (n *placeNode) Attribute(string) (*string, error) { return nil, nil }
func (n *placeNode) ScrollTo(int) error { return nil }
func (n *placeNode) ScrollHeight() (int, error) { return 0, nil }
func (n *placeNode) Click() error {
	if fn := n.sess.places[n.idx].clickFn; fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	n.sess.current = n.idx
	return nil
}

type valueNode struct {
	value string
}

func (n *valueNode) Text() (string, error) { return n.value, nil }
func (n *valueNode) Attribute(string) (*string, error) {
	v := n.value
	return &v, nil
}

func (n *valueNode) Click() error { return nil }
func (n *valueNode) ScrollTo(int) error { return nil }
func (n *valueNode) ScrollHeight() (int, error) { return 0, nil }

type fakeBrowser struct {
	sess    *fakeSession
	openErr error
	opened  int
}

func (b *fakeBrowser) Open(context.Context) (Session, error) {
	b.opened++
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.sess, nil
}

type fakeStore struct {
	calls        int
	rows         []*models.Dealership
	err          error
	closedAtCall int
	sess         *fakeSession
}

func (s *fakeStore) UpsertDealerships(_ context.Context, rows []*models.Dealership) (database.WriteResult, error) {
	s.calls++
	s.rows = append(s.rows, rows...)
	if s.sess != nil {
		s.closedAtCall = s.sess.closed
	}
	if s.err != nil {
		return database.WriteResult{}, s.err
	}
	return database.WriteResult{Inserted: len(rows)}, nil
}

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func testOptions() Options {
	return Options{
		BaseURL:       "https://www.google.com/maps/search/",
		Query:         "car dealerships",
		Brands:        []string{"BMW", "Toyota", "Honda"},
		InitialSettle: 5 * time.Second,
		ScrollSettle:  2 * time.Second,
		PanelSettle:   4 * time.Second,
		BackSettle:    3 * time.Second,
		MaxScrolls:    15,
	}
}

func newTestCrawler(b *fakeBrowser, store *fakeStore) (*Crawler, *recordingSleeper) {
	rec := &recordingSleeper{}
	return NewCrawler(b, store, testOptions()).WithSleeper(rec.sleep), rec
}

func TestRunBrandFilterAndFailureRecovery(t *testing.T) {
	sess := newFakeSession(
		fakePlace{name: "Downtown Toyota", address: "1 Main St", phone: "555-0100", website: "https://downtowntoyota.example"},
		fakePlace{name: "City Motors", website: "https://citymotors.example"},
		fakePlace{name: "Bay BMW", website: "https://baybmw.example", clickFn: func() error { return errors.New("detached node") }},
		fakePlace{name: "Sunset Honda"},
	)
	store := &fakeStore{sess: sess}
	c, _ := newTestCrawler(&fakeBrowser{sess: sess}, store)

	res, err := c.Run(context.Background(), "90210")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Candidates != 4 || res.Failed != 1 || res.Rejected != 1 || res.NoWebsite != 1 {
		t.Fatalf("unexpected counters: %+v", res)
	}
	if len(res.Accepted) != 1 {
		t.Fatalf("expected one accepted dealership, got %d", len(res.Accepted))
	}
	d := res.Accepted[0]
	if d.Name != "Downtown Toyota" || d.ZipCode != "90210" || d.Brand == nil || *d.Brand != "Toyota" {
		t.Fatalf("unexpected dealership %+v", d)
	}
	if d.Address == nil || *d.Address != "1 Main St" || d.Phone == nil || *d.Phone != "555-0100" {
		t.Fatalf("expected address and phone, got %+v", d)
	}

	if store.calls != 1 || len(store.rows) != 1 {
		t.Fatalf("expected single persist of one row, got calls=%d rows=%d", store.calls, len(store.rows))
	}
	if store.closedAtCall != 1 {
		t.Fatal("expected session released before persisting")
	}
	if sess.closed != 1 {
		t.Fatalf("expected session closed once, got %d", sess.closed)
	}

	want := []State{StateIdle, StatePageLoaded, StateScrolling, StateExtracting, StateDone}
	if len(res.States) != len(want) {
		t.Fatalf("unexpected states %v", res.States)
	}
	for i := range want {
		if res.States[i] != want[i] {
			t.Fatalf("unexpected states %v", res.States)
		}
	}
	if res.Write.Inserted != 1 {
		t.Fatalf("expected write summary, got %+v", res.Write)
	}
}

func TestRunRecoversFromDriverPanic(t *testing.T) {
	sess := newFakeSession(
		fakePlace{name: "Bay BMW", website: "https://baybmw.example", clickFn: func() error { panic("node detached mid-click") }},
		fakePlace{name: "Sunset Honda", website: "https://sunsethonda.example"},
	)
	store := &fakeStore{}
	c, _ := newTestCrawler(&fakeBrowser{sess: sess}, store)

	res, err := c.Run(context.Background(), "90210")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Failed != 1 || len(res.Accepted) != 1 || res.Accepted[0].Name != "Sunset Honda" {
		t.Fatalf("expected panic counted as one failure, got %+v", res)
	}
	if sess.backs < 2 || sess.closed != 1 {
		t.Fatalf("expected recovery navigation and session release, backs=%d closed=%d", sess.backs, sess.closed)
	}
	if store.calls != 1 {
		t.Fatalf("expected results persisted, got %d calls", store.calls)
	}
}

func TestRunMissingFieldsAreNull(t *testing.T) {
	sess := newFakeSession(fakePlace{name: "Westside Kia Honda", website: "https://westside.example"})
	store := &fakeStore{}
	c, _ := newTestCrawler(&fakeBrowser{sess: sess}, store)

	res, err := c.Run(context.Background(), "10001")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Accepted) != 1 {
		t.Fatalf("expected accepted dealership, got %+v", res)
	}
	if res.Accepted[0].Address != nil || res.Accepted[0].Phone != nil {
		t.Fatalf("expected nil address and phone, got %+v", res.Accepted[0])
	}
}

func TestRunScrollConvergence(t *testing.T) {
	sess := newFakeSession()
	sess.heights = []int{1000, 2000, 2000, 3000}
	c, rec := newTestCrawler(&fakeBrowser{sess: sess}, &fakeStore{})

	res, err := c.Run(context.Background(), "90210")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Scrolls != 2 {
		t.Fatalf("expected scrolling to stop after 2 scrolls, got %d", res.Scrolls)
	}

	scrollWaits := 0
	for _, d := range rec.waits {
		if d == 2*time.Second {
			scrollWaits++
		}
	}
	if scrollWaits != 2 {
		t.Fatalf("expected 2 scroll settles, got %d (%v)", scrollWaits, rec.waits)
	}
}

func TestRunScrollCap(t *testing.T) {
	sess := newFakeSession()
	sess.growing = true
	c, _ := newTestCrawler(&fakeBrowser{sess: sess}, &fakeStore{})

	res, err := c.Run(context.Background(), "90210")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Scrolls != 15 {
		t.Fatalf("expected scroll cap of 15, got %d", res.Scrolls)
	}
}

func TestRunFallsBackToBody(t *testing.T) {
	sess := newFakeSession()
	sess.noFeed = true
	sess.heights = []int{500, 900, 900}
	c, _ := newTestCrawler(&fakeBrowser{sess: sess}, &fakeStore{})

	res, err := c.Run(context.Background(), "90210")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Scrolls != 2 {
		t.Fatalf("expected body to be scrolled, got %d scrolls", res.Scrolls)
	}
}

func TestRunMaxCandidates(t *testing.T) {
	sess := newFakeSession(
		fakePlace{name: "A Toyota", website: "https://a.example"},
		fakePlace{name: "B Toyota", website: "https://b.example"},
		fakePlace{name: "C Toyota", website: "https://c.example"},
	)
	c, _ := newTestCrawler(&fakeBrowser{sess: sess}, &fakeStore{})
	c.opts.MaxCandidates = 2

	res, err := c.Run(context.Background(), "90210")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Candidates != 2 || len(res.Accepted) != 2 {
		t.Fatalf("expected 2 visited candidates, got %+v", res)
	}
}

func TestRunOpenFailureIsFatal(t *testing.T) {
	store := &fakeStore{}
	c, _ := newTestCrawler(&fakeBrowser{openErr: errors.New("no chrome")}, store)

	res, err := c.Run(context.Background(), "90210")
	if !errors.Is(err, errs.ErrBrowser) {
		t.Fatalf("expected browser error, got %v", err)
	}
	if res.State() != StateFailed {
		t.Fatalf("expected failed state, got %v", res.State())
	}
	if store.calls != 0 {
		t.Fatal("nothing should be persisted when the session cannot start")
	}
}

func TestRunNavigationFailureIsFatal(t *testing.T) {
	sess := newFakeSession(fakePlace{name: "Downtown Toyota", website: "https://dt.example"})
	sess.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	store := &fakeStore{}
	c, _ := newTestCrawler(&fakeBrowser{sess: sess}, store)

	_, err := c.Run(context.Background(), "90210")
	if !errors.Is(err, errs.ErrBrowser) {
		t.Fatalf("expected browser error, got %v", err)
	}
	if store.calls != 0 {
		t.Fatal("nothing should be persisted after a navigation failure")
	}
	if sess.closed != 1 {
		t.Fatalf("expected session closed once, got %d", sess.closed)
	}
}

func TestRunCancelledMidExtractionDropsResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := newFakeSession(
		fakePlace{name: "Downtown Toyota", website: "https://dt.example"},
		fakePlace{name: "Uptown Honda", website: "https://uh.example", clickFn: func() error {
			cancel()
			return nil
		}},
		fakePlace{name: "Midtown BMW", website: "https://mb.example"},
	)
	store := &fakeStore{}
	c, _ := newTestCrawler(&fakeBrowser{sess: sess}, store)

	res, err := c.Run(ctx, "90210")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if res.State() != StateFailed {
		t.Fatalf("expected failed state, got %v", res.State())
	}
	if store.calls != 0 {
		t.Fatal("a cancelled crawl must not persist partial results")
	}
	if sess.closed != 1 {
		t.Fatalf("expected session closed once, got %d", sess.closed)
	}
}

func TestRunStoreFailure(t *testing.T) {
	sess := newFakeSession(fakePlace{name: "Downtown Toyota", website: "https://dt.example"})
	store := &fakeStore{err: errors.New("database is locked")}
	c, _ := newTestCrawler(&fakeBrowser{sess: sess}, store)

	res, err := c.Run(context.Background(), "90210")
	if err == nil || !strings.Contains(err.Error(), "database is locked") {
		t.Fatalf("expected store error, got %v", err)
	}
	if res.State() != StateFailed || sess.closed != 1 {
		t.Fatalf("unexpected final state %v closed=%d", res.State(), sess.closed)
	}
}

func TestRunUsesSearchURLAndSettles(t *testing.T) {
	sess := newFakeSession()
	c, rec := newTestCrawler(&fakeBrowser{sess: sess}, &fakeStore{})

	res, err := c.Run(context.Background(), "Beverly Hills")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := "https://www.google.com/maps/search/car+dealerships+Beverly+Hills"
	if len(sess.navigated) != 1 || sess.navigated[0] != want || res.SearchURL != want {
		t.Fatalf("unexpected navigation %v", sess.navigated)
	}
	if len(rec.waits) == 0 || rec.waits[0] != 5*time.Second {
		t.Fatalf("expected initial 5s settle first, got %v", rec.waits)
	}
	if res.RunID == "" {
		t.Fatal("expected run id")
	}
}

func TestSearchURLEscapes(t *testing.T) {
	got := SearchURL("https://www.google.com/maps/search/", "car dealerships", "Austin, TX")
	want := "https://www.google.com/maps/search/car+dealerships+Austin%2C+TX"
	if got != want {
		t.Fatalf("SearchURL = %q, want %q", got, want)
	}
}

func TestStateString(t *testing.T) {
	if StateScrolling.String() != "scrolling" || State(99).String() != "unknown" {
		t.Fatal("unexpected state names")
	}
}
