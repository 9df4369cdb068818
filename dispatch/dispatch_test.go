package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"immo-scouter/config"
	"immo-scouter/models"
	"immo-scouter/store"
)

type fakeNotifier struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeNotifier) Notify(_ context.Context, l *models.Listing, _ string) error {
	if f.failFor[l.URL] {
		return errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, l.URL)
	return nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Dispatch.Limit = 2
	cfg.Dispatch.PoolFactor = 3
	cfg.Dispatch.MinScore = 40
	cfg.Dispatch.CooldownDays = 7
	return cfg
}

func seed(t *testing.T, m *store.Memory, url string, score float64) {
	t.Helper()
	l := &models.Listing{
		URL:        url,
		Source:     models.SourceWillhaben,
		PriceTotal: models.Ptr(300000.0),
		AreaM2:     models.Ptr(75.0),
		Score:      models.Ptr(score),
	}
	if err := m.Upsert(context.Background(), l); err != nil {
		t.Fatal(err)
	}
}

func TestRunDispatchesAndMarksSent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	for i, url := range []string{"a", "b", "c", "d"} {
		seed(t, m, url, float64(60+i*5))
	}
	notifier := &fakeNotifier{}
	d := New(m, notifier, testConfig())

	res, err := d.Run(ctx, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Selected != 2 || res.Dispatched != 2 || res.Failed != 0 {
		t.Fatalf("result = %+v; want 2 selected, 2 dispatched", res)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("notifier got %d messages", len(notifier.sent))
	}
	sent, err := m.RecentlySent(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	for _, url := range notifier.sent {
		if _, ok := sent[url]; !ok {
			t.Errorf("dispatched url %s not marked sent", url)
		}
	}
}

func TestRunShrinksToPoolSize(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, "only", 80)
	notifier := &fakeNotifier{}
	d := New(m, notifier, testConfig())

	res, err := d.Run(ctx, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Selected != 1 || res.Dispatched != 1 {
		t.Fatalf("result = %+v; want batch shrunk to 1", res)
	}
}

func TestRunSuppressesRecentlySent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, "fresh", 70)
	seed(t, m, "stale", 95)
	if err := m.MarkSent(ctx, []string{"stale"}, time.Now().Add(-24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	notifier := &fakeNotifier{}
	d := New(m, notifier, testConfig())

	res, err := d.Run(ctx, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Suppressed != 1 {
		t.Fatalf("suppressed = %d; want 1", res.Suppressed)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "fresh" {
		t.Fatalf("sent = %v; want just fresh", notifier.sent)
	}
}

func TestRunSuppressedDoNotConsumePoolSlots(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	// Six high scorers, all inside the cooldown window: enough to
	// fill the whole pool of Limit*PoolFactor on their own.
	for i := 0; i < 6; i++ {
		url := string(rune('a' + i))
		seed(t, m, url, float64(90+i))
		if err := m.MarkSent(ctx, []string{url}, time.Now().Add(-time.Hour)); err != nil {
			t.Fatal(err)
		}
	}
	seed(t, m, "unsent", 50)
	notifier := &fakeNotifier{}
	d := New(m, notifier, testConfig())

	res, err := d.Run(ctx, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Suppressed != 6 {
		t.Errorf("suppressed = %d; want 6", res.Suppressed)
	}
	if res.Dispatched != 1 || len(notifier.sent) != 1 || notifier.sent[0] != "unsent" {
		t.Fatalf("result = %+v, sent = %v; want the lower scorer dispatched", res, notifier.sent)
	}
}

func TestRunZeroCooldownIncludesPastSends(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, "resend", 85)
	if err := m.MarkSent(ctx, []string{"resend"}, time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Dispatch.CooldownDays = 0
	notifier := &fakeNotifier{}
	d := New(m, notifier, cfg)

	res, err := d.Run(ctx, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Suppressed != 0 || res.Dispatched != 1 {
		t.Fatalf("result = %+v; a zero-day window must not suppress past sends", res)
	}
}

func TestRunOverrideIncludesSent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, "stale", 95)
	if err := m.MarkSent(ctx, []string{"stale"}, time.Now().Add(-24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	notifier := &fakeNotifier{}
	d := New(m, notifier, testConfig())

	res, err := d.Run(ctx, Options{Override: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Dispatched != 1 {
		t.Fatalf("dispatched = %d; want 1 in override mode", res.Dispatched)
	}
}

func TestRunFailedNotifyNotMarkedSent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, "good", 80)
	seed(t, m, "bad", 85)
	notifier := &fakeNotifier{failFor: map[string]bool{"bad": true}}
	d := New(m, notifier, testConfig())

	res, err := d.Run(ctx, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Dispatched != 1 || res.Failed != 1 {
		t.Fatalf("result = %+v; want 1 dispatched, 1 failed", res)
	}
	sent, err := m.RecentlySent(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sent["bad"]; ok {
		t.Error("failed dispatch must not be marked sent")
	}
	if _, ok := sent["good"]; !ok {
		t.Error("successful dispatch must be marked sent")
	}
}

func TestRunFiltersImplausibleCandidates(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	// Scores well but the price is scrape garbage.
	garbage := &models.Listing{
		URL:        "garbage",
		Source:     models.SourceWillhaben,
		PriceTotal: models.Ptr(30000.0),
		AreaM2:     models.Ptr(60.0),
		Score:      models.Ptr(99.0),
	}
	if err := m.Upsert(ctx, garbage); err != nil {
		t.Fatal(err)
	}
	notifier := &fakeNotifier{}
	d := New(m, notifier, testConfig())

	res, err := d.Run(ctx, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Candidates != 1 || res.Validated != 0 || res.Dispatched != 0 {
		t.Fatalf("result = %+v; want garbage filtered before dispatch", res)
	}
}

func TestRunDryRun(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, "a", 80)
	notifier := &fakeNotifier{}
	d := New(m, notifier, testConfig())

	res, err := d.Run(ctx, Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Dispatched != 0 || len(notifier.sent) != 0 {
		t.Fatalf("dry run dispatched: %+v", res)
	}
	sent, _ := m.RecentlySent(ctx, time.Now().Add(-time.Hour))
	if len(sent) != 0 {
		t.Error("dry run must not mark anything sent")
	}
}

func TestFormatMessage(t *testing.T) {
	l := &models.Listing{
		URL:              "https://example.at/1",
		Source:           models.SourceWillhaben,
		Address:          models.Ptr("Reinprechtsdorfer Straße 12"),
		Bezirk:           models.Ptr("1050"),
		PriceTotal:       models.Ptr(298000.0),
		AreaM2:           models.Ptr(82.0),
		PricePerM2:       models.Ptr(3634.15),
		Rooms:            models.Ptr(3.0),
		MonthlyRate:      models.Ptr(985.0),
		Score:            models.Ptr(76.5),
		UBahnWalkMinutes: models.Ptr(5),
	}
	msg := FormatMessage(l)

	for _, want := range []string{
		"Reinprechtsdorfer Straße 12",
		"€298.000",
		"1050 Margareten",
		"82m²",
		"3 Zimmer",
		"Score: 76.5",
		"U-Bahn: 5 min",
		`<a href="https://example.at/1">`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Baujahr") {
		t.Error("absent year must not produce a line")
	}
}

func TestFormatMessageEscapesHTML(t *testing.T) {
	l := &models.Listing{
		URL:   "https://example.at/2",
		Title: models.Ptr("Wohnung <mit> Aussicht & Garten"),
	}
	msg := FormatMessage(l)
	if strings.Contains(msg, "<mit>") {
		t.Error("title not HTML-escaped")
	}
	if !strings.Contains(msg, "&lt;mit&gt;") || !strings.Contains(msg, "&amp;") {
		t.Errorf("expected escaped entities in:\n%s", msg)
	}
}

func TestEuroFormatting(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{500, "€500"},
		{1069, "€1.069"},
		{298000, "€298.000"},
		{1099000, "€1.099.000"},
	}
	for _, tt := range tests {
		if got := euro(tt.v); got != tt.want {
			t.Errorf("euro(%v) = %q; want %q", tt.v, got, tt.want)
		}
	}
}
