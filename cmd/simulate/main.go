package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/civil"

	"github.com/hackgods/clinic-appointment-booking/internal/booking"
	"github.com/hackgods/clinic-appointment-booking/internal/logging"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	BookRatio   float64
	CancelRatio float64
	ReadRatio   float64
	Days        int
}

// DataPool holds the ids the workers pick from. Booked slot ids are added and
// removed as the simulation runs.
type DataPool struct {
	Patients []string
	Services []string
	mu       sync.Mutex
	slots    []string
}

func (dp *DataPool) AddSlot(id string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.slots = append(dp.slots, id)
}

// TakeSlot removes and returns a random booked slot id.
func (dp *DataPool) TakeSlot(rng *rand.Rand) (string, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.slots) == 0 {
		return "", false
	}
	i := rng.Intn(len(dp.slots))
	id := dp.slots[i]
	dp.slots[i] = dp.slots[len(dp.slots)-1]
	dp.slots = dp.slots[:len(dp.slots)-1]
	return id, true
}

func (dp *DataPool) RandomSlot(rng *rand.Rand) (string, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.slots) == 0 {
		return "", false
	}
	return dp.slots[rng.Intn(len(dp.slots))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
	reasons   map[string]int
}

// Record counts one call. reason is the error code of a 409 response.
func (om *OperationMetrics) Record(latency time.Duration, status int, reason string) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	if reason != "" {
		if om.reasons == nil {
			om.reasons = make(map[string]int)
		}
		om.reasons[reason]++
	}
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, max time.Duration) {
	om.mu.Lock()
	latencies := slices.Clone(om.latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0
	}
	slices.Sort(latencies)

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[min(len(latencies)*50/100, len(latencies)-1)]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95, latencies[len(latencies)-1]
}

type Metrics struct {
	Book         OperationMetrics
	Cancel       OperationMetrics
	ReadSlot     OperationMetrics
	ListPatient  OperationMetrics
	Availability OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	logger  *slog.Logger
	metrics Metrics
}

func main() {
	logger := logging.New(getEnv("LOG_LEVEL", "info"))

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logger.Info("simulator starting",
		"duration", cfg.Duration,
		"workers", cfg.Workers,
		"book", cfg.BookRatio,
		"cancel", cfg.CancelRatio,
		"read", cfg.ReadRatio,
	)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := sim.loadDataPool(ctx)
	if err != nil {
		logger.Error("load data pool", "error", err)
		os.Exit(1)
	}
	sim.pool = pool
	logger.Info("data pool loaded", "patients", len(pool.Patients), "services", len(pool.Services))

	sim.Run()
	sim.PrintReport(os.Stdout)
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  strings.TrimRight(getEnv("SIM_API_BASE_URL", "http://localhost:8080"), "/"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 10),
		BookRatio:   getFloat("SIM_BOOK_RATIO", 0.5),
		CancelRatio: getFloat("SIM_CANCEL_RATIO", 0.2),
		ReadRatio:   getFloat("SIM_READ_RATIO", 0.3),
		Days:        getInt("SIM_DAYS", 7),
	}

	total := cfg.BookRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return errors.New("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return errors.New("SIM_DURATION must be > 0")
	}
	if cfg.Days <= 0 {
		return errors.New("SIM_DAYS must be > 0")
	}
	return nil
}

// loadDataPool reads patients and services from the API. Run the seed
// command first when the clinic is empty.
func (s *Simulator) loadDataPool(ctx context.Context) (*DataPool, error) {
	var patients []struct {
		ID string `json:"id"`
	}
	if err := s.getJSON(ctx, "/patients", &patients); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	var services []struct {
		ID string `json:"id"`
	}
	if err := s.getJSON(ctx, "/services", &services); err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	if len(patients) == 0 {
		return nil, errors.New("no patients loaded")
	}
	if len(services) == 0 {
		return nil, errors.New("no services loaded")
	}

	pool := &DataPool{}
	for _, p := range patients {
		pool.Patients = append(pool.Patients, p.ID)
	}
	for _, svc := range services {
		pool.Services = append(pool.Services, svc.ID)
	}
	return pool, nil
}

func (s *Simulator) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()
	s.logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < s.config.BookRatio:
			s.doBook(ctx, rng)
		case r < s.config.BookRatio+s.config.CancelRatio:
			s.doCancel(ctx, rng)
		default:
			switch rng.Intn(3) {
			case 0:
				s.doReadSlot(ctx, rng)
			case 1:
				s.doListPatient(ctx, rng)
			default:
				s.doAvailability(ctx, rng)
			}
		}
	}
}

func (s *Simulator) randomDate(rng *rand.Rand) civil.Date {
	return civil.DateOf(time.Now()).AddDays(1 + rng.Intn(s.config.Days))
}

func (s *Simulator) doBook(ctx context.Context, rng *rand.Rand) {
	date := s.randomDate(rng)
	grid := booking.TimeGrid(date)
	body := fmt.Sprintf(`{"date":%q,"time":%q,"service_id":%q,"patient_id":%q}`,
		date.String(),
		booking.FormatTime(grid[rng.Intn(len(grid))]),
		s.pool.Services[rng.Intn(len(s.pool.Services))],
		s.pool.Patients[rng.Intn(len(s.pool.Patients))],
	)

	status, payload, latency, ok := s.call(ctx, http.MethodPost, "/slots", body)
	if !ok {
		return
	}
	if status == http.StatusCreated {
		var slot struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(payload, &slot) == nil && slot.ID != "" {
			s.pool.AddSlot(slot.ID)
		}
	}
	s.metrics.Book.Record(latency, status, conflictReason(status, payload))
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.TakeSlot(rng)
	if !ok {
		return
	}
	status, payload, latency, ok := s.call(ctx, http.MethodDelete, "/slots/"+url.PathEscape(id), "")
	if ok {
		s.metrics.Cancel.Record(latency, status, conflictReason(status, payload))
	}
}

func (s *Simulator) doReadSlot(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomSlot(rng)
	if !ok {
		return
	}
	status, _, latency, ok := s.call(ctx, http.MethodGet, "/slots/"+url.PathEscape(id), "")
	if ok {
		s.metrics.ReadSlot.Record(latency, status, "")
	}
}

func (s *Simulator) doListPatient(ctx context.Context, rng *rand.Rand) {
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	status, _, latency, ok := s.call(ctx, http.MethodGet, "/slots?patient_id="+url.QueryEscape(patientID), "")
	if ok {
		s.metrics.ListPatient.Record(latency, status, "")
	}
}

func (s *Simulator) doAvailability(ctx context.Context, rng *rand.Rand) {
	q := url.Values{}
	q.Set("date", s.randomDate(rng).String())
	q.Set("service_id", s.pool.Services[rng.Intn(len(s.pool.Services))])
	status, _, latency, ok := s.call(ctx, http.MethodGet, "/availability?"+q.Encode(), "")
	if ok {
		s.metrics.Availability.Record(latency, status, "")
	}
}

// call returns ok=false when the run ended mid request; those calls are not counted.
func (s *Simulator) call(ctx context.Context, method, path, body string) (status int, payload []byte, latency time.Duration, ok bool) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, nil, 0, false
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency = time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, 0, false
		}
		s.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return 0, nil, latency, true
	}
	defer resp.Body.Close()
	payload, _ = io.ReadAll(resp.Body)
	return resp.StatusCode, payload, latency, true
}

func conflictReason(status int, payload []byte) string {
	if status != http.StatusConflict {
		return ""
	}
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(payload, &e) != nil {
		return "unknown"
	}
	return e.Error
}

func (s *Simulator) PrintReport(w io.Writer) {
	line := strings.Repeat("=", 80)
	fmt.Fprintln(w, "\n"+line)
	fmt.Fprintln(w, "SIMULATION REPORT")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Duration: %s\n", s.config.Duration)
	fmt.Fprintf(w, "Workers: %d\n\n", s.config.Workers)

	printOperationReport(w, "Book", &s.metrics.Book)
	printOperationReport(w, "Cancel", &s.metrics.Cancel)
	printOperationReport(w, "Read slot", &s.metrics.ReadSlot)
	printOperationReport(w, "List by patient", &s.metrics.ListPatient)
	printOperationReport(w, "Availability", &s.metrics.Availability)
}

func printOperationReport(w io.Writer, name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}
	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)
	avg, p50, p95, max := om.Stats()

	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  Total: %d\n", total)
	fmt.Fprintf(w, "  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Fprintf(w, "  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
		om.mu.Lock()
		reasons := make([]string, 0, len(om.reasons))
		for r := range om.reasons {
			reasons = append(reasons, r)
		}
		slices.Sort(reasons)
		for _, r := range reasons {
			fmt.Fprintf(w, "    %s: %d\n", r, om.reasons[r])
		}
		om.mu.Unlock()
	}
	if failed > 0 {
		fmt.Fprintf(w, "  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Fprintf(w, "  Latency: avg=%s p50=%s p95=%s max=%s\n\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), max.Round(time.Millisecond))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
