package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/lumen-dev/lumen/pkg/dom"
	"github.com/lumen-dev/lumen/pkg/live"
	"github.com/lumen-dev/lumen/pkg/protocol"
	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/render"
)

type profile struct {
	Name         string
	Clients      int
	Duration     time.Duration
	RPS          float64
	ListSize     int
	PayloadBytes int
}

var profiles = map[string]profile{
	"fast": {
		Name:         "fast",
		Clients:      50,
		Duration:     10 * time.Second,
		RPS:          2,
		ListSize:     20,
		PayloadBytes: 24,
	},
	"standard": {
		Name:         "standard",
		Clients:      200,
		Duration:     30 * time.Second,
		RPS:          5,
		ListSize:     50,
		PayloadBytes: 24,
	},
	"stress": {
		Name:         "stress",
		Clients:      500,
		Duration:     60 * time.Second,
		RPS:          10,
		ListSize:     100,
		PayloadBytes: 24,
	},
}

type benchConfig struct {
	Profile      string
	Clients      int
	Duration     time.Duration
	RPS          float64
	ListSize     int
	PayloadBytes int
	JSONOutput   string
	EventTimeout time.Duration
}

func main() {
	var (
		profileName  string
		clients      int
		durationStr  string
		rps          float64
		listSize     int
		payloadBytes int
		jsonOutput   string
	)

	cmd := &cobra.Command{
		Use:   "lumen-bench",
		Short: "Load benchmark for the lumen live rendering pipeline",
		Long: `lumen-bench starts an in-process live server rendering a keyed list,
drives it with concurrent WebSocket clients sending input events, and
reports round-trip latency, throughput, patch traffic, and GC cost.

Each event edits one keyed list row, so every round trip exercises the
full path: event dispatch, reactive update, batch flush, list
reconciliation, and binary patch encoding.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(profileName, clients, durationStr, rps, listSize, payloadBytes, jsonOutput)
			if err != nil {
				return err
			}
			return runBench(cfg)
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "standard", "workload profile: fast|standard|stress")
	cmd.Flags().IntVarP(&clients, "clients", "c", -1, "concurrent WebSocket clients (overrides profile)")
	cmd.Flags().StringVarP(&durationStr, "duration", "d", "", "benchmark duration, e.g. 30s (overrides profile)")
	cmd.Flags().Float64Var(&rps, "rps", -1, "target events/sec per client (overrides profile)")
	cmd.Flags().IntVar(&listSize, "list", -1, "keyed list size per session (overrides profile)")
	cmd.Flags().IntVar(&payloadBytes, "payload-bytes", -1, "bytes of token payload per event (overrides profile)")
	cmd.Flags().StringVar(&jsonOutput, "json", "-", "JSON report path ('-' for stdout)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func resolveConfig(profileName string, clients int, durationStr string, rps float64, listSize, payloadBytes int, jsonOutput string) (benchConfig, error) {
	name := strings.ToLower(strings.TrimSpace(profileName))
	base, ok := profiles[name]
	if !ok {
		return benchConfig{}, fmt.Errorf("unknown profile %q", name)
	}

	cfg := benchConfig{
		Profile:      base.Name,
		Clients:      base.Clients,
		Duration:     base.Duration,
		RPS:          base.RPS,
		ListSize:     base.ListSize,
		PayloadBytes: base.PayloadBytes,
		JSONOutput:   strings.TrimSpace(jsonOutput),
	}

	if clients != -1 {
		cfg.Clients = clients
	}
	if durationStr != "" {
		d, err := time.ParseDuration(durationStr)
		if err != nil {
			return benchConfig{}, fmt.Errorf("invalid --duration: %w", err)
		}
		cfg.Duration = d
	}
	if rps != -1 {
		cfg.RPS = rps
	}
	if listSize != -1 {
		cfg.ListSize = listSize
	}
	if payloadBytes != -1 {
		cfg.PayloadBytes = payloadBytes
	}
	if cfg.JSONOutput == "" {
		cfg.JSONOutput = "-"
	}

	if cfg.Clients <= 0 {
		return benchConfig{}, errors.New("--clients must be > 0")
	}
	if cfg.Duration <= 0 {
		return benchConfig{}, errors.New("--duration must be > 0")
	}
	if cfg.RPS <= 0 {
		return benchConfig{}, errors.New("--rps must be > 0")
	}
	if cfg.ListSize <= 0 {
		return benchConfig{}, errors.New("--list must be > 0")
	}
	if cfg.PayloadBytes <= 0 {
		return benchConfig{}, errors.New("--payload-bytes must be > 0")
	}

	cfg.EventTimeout = eventTimeout(cfg.RPS)
	return cfg, nil
}

func eventTimeout(rps float64) time.Duration {
	period := time.Duration(float64(time.Second) / rps)
	timeout := period * 10
	if timeout < 2*time.Second {
		timeout = 2 * time.Second
	}
	return timeout
}

type benchRow struct {
	Key   string
	Label string
}

// inputID holds the input node's document ID. Sessions build the document in
// the same creation order, so the ID is identical across sessions; the first
// mount publishes it for the clients.
var inputID atomic.Pointer[string]

// benchRoot renders an input, an echo line bound to it, and a keyed list.
// Each input event rewrites one row selected by hashing the value, so the
// round trip covers event dispatch, reconciliation, and patch encoding.
func benchRoot(listSize int) live.Root {
	return func(doc *dom.Document) (*render.Instruction, error) {
		echo := reactive.NewCell("")
		rows := make([]benchRow, listSize)
		for i := range rows {
			rows[i] = benchRow{
				Key:   strconv.Itoa(i),
				Label: fmt.Sprintf("Row %d", i),
			}
		}
		items := reactive.NewCell(rows)

		input := doc.CreateElement("input")
		input.SetAttr("type", "text")
		id := input.ID()
		inputID.Store(&id)

		echoText := doc.CreateText("")
		echoLine := doc.CreateElement("div")
		list := doc.CreateElement("ul")
		rootEl := doc.CreateElement("div")

		return render.Dynamic(rootEl, nil,
			render.Dynamic(input, []render.Binding{
				render.EventBinding{Event: "input", Handler: func(ev dom.Event) {
					echo.Set(ev.Value)
					items.Update(func(prev []benchRow) []benchRow {
						if len(prev) == 0 {
							return prev
						}
						next := make([]benchRow, len(prev))
						copy(next, prev)
						idx := int(fnv1a32(ev.Value) % uint32(len(next)))
						next[idx].Label = ev.Value
						return next
					})
				}},
			}),
			render.Dynamic(echoLine, nil,
				render.Dynamic(echoText, []render.Binding{
					render.TextBinding{Value: echo.Get},
				}),
			),
			render.Dynamic(list, []render.Binding{
				render.ForEach(items.Get,
					func(r benchRow) string { return r.Key },
					func(r benchRow) []*render.Instruction {
						li := doc.CreateElement("li")
						li.AppendChild(doc.CreateText(r.Label))
						return []*render.Instruction{render.Static(li)}
					}),
			}),
		), nil
	}
}

type benchCounters struct {
	eventsSent     atomic.Uint64
	eventsComplete atomic.Uint64
	eventBytes     atomic.Uint64
	patchBytes     atomic.Uint64
	patchFrames    atomic.Uint64
	patchesTotal   atomic.Uint64
}

type benchErrors struct {
	dialFailures        atomic.Uint64
	eventWriteFailures  atomic.Uint64
	frameDecodeFailures atomic.Uint64
	patchDecodeFailures atomic.Uint64
	serverErrorFrames   atomic.Uint64
	tokenMissing        atomic.Uint64
	totalErrors         atomic.Uint64
}

type patchOpCounts struct {
	counts [256]atomic.Uint64
}

func (p *patchOpCounts) add(op protocol.PatchOp) {
	p.counts[uint8(op)].Add(1)
}

func (p *patchOpCounts) snapshot() map[string]uint64 {
	out := make(map[string]uint64)
	for i := range p.counts {
		count := p.counts[i].Load()
		if count == 0 {
			continue
		}
		name := protocol.PatchOp(uint8(i)).String()
		if name == "Unknown" {
			name = fmt.Sprintf("0x%02x", i)
		}
		out[name] = count
	}
	return out
}

func runBench(cfg benchConfig) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := live.NewServer(benchRoot(cfg.ListSize), live.Config{Logger: logger})
	if err != nil {
		return fmt.Errorf("server setup: %w", err)
	}

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	httpServer := &http.Server{Handler: srv.Handler()}
	go func() {
		_ = httpServer.Serve(ln)
	}()
	defer func() {
		_ = httpServer.Shutdown(context.Background())
	}()

	wsURL := "ws://" + ln.Addr().String() + "/live"

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	samplesCh := make(chan time.Duration, cfg.Clients*4+1024)
	var samples []time.Duration
	var samplesMu sync.Mutex
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for rtt := range samplesCh {
			samplesMu.Lock()
			samples = append(samples, rtt)
			samplesMu.Unlock()
		}
	}()

	var counters benchCounters
	var errCounts benchErrors
	var patchOps patchOpCounts

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(cfg.Clients)
	for i := 0; i < cfg.Clients; i++ {
		clientID := i
		go func() {
			defer wg.Done()
			if err := runClient(ctx, wsURL, clientID, cfg, &counters, &errCounts, &patchOps, samplesCh); err != nil {
				errCounts.totalErrors.Add(1)
			}
		}()
	}

	wg.Wait()
	close(samplesCh)
	<-collectorDone

	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&after)

	samplesMu.Lock()
	latencies := append([]time.Duration(nil), samples...)
	samplesMu.Unlock()
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	report := buildReport(cfg, elapsed, latencies, &counters, &errCounts, &patchOps, before, after)

	writeSummary(os.Stderr, report)
	return writeJSON(cfg.JSONOutput, report)
}

func runClient(
	ctx context.Context,
	wsURL string,
	clientID int,
	cfg benchConfig,
	counters *benchCounters,
	errCounts *benchErrors,
	patchOps *patchOpCounts,
	samples chan<- time.Duration,
) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		errCounts.dialFailures.Add(1)
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// The first patches frame is the mount flush; by the time it arrives the
	// session's root has published the input node ID.
	initCtx, cancelInit := context.WithTimeout(ctx, cfg.EventTimeout)
	_, err = waitForToken(initCtx, conn, "", counters, errCounts, patchOps)
	cancelInit()
	if err != nil && !errors.Is(err, errInitialFrame) {
		return fmt.Errorf("initial frame: %w", err)
	}

	target := inputID.Load()
	if target == nil {
		return errors.New("input node ID not published")
	}

	period := time.Duration(float64(time.Second) / cfg.RPS)
	var seq uint64

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		seq++
		token := makeToken(clientID, seq, cfg.PayloadBytes)

		start := time.Now()

		ev := &protocol.Event{
			Seq:    seq,
			Target: *target,
			Type:   "input",
			Value:  token,
		}
		frame := protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(ev))
		data, err := frame.Encode()
		if err != nil {
			errCounts.eventWriteFailures.Add(1)
			return fmt.Errorf("event encode: %w", err)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			errCounts.eventWriteFailures.Add(1)
			return fmt.Errorf("event write: %w", err)
		}

		counters.eventsSent.Add(1)
		counters.eventBytes.Add(uint64(len(data)))

		conn.SetReadDeadline(time.Now().Add(cfg.EventTimeout))
		eventCtx, cancel := context.WithTimeout(ctx, cfg.EventTimeout)
		found, err := waitForToken(eventCtx, conn, token, counters, errCounts, patchOps)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
				errCounts.tokenMissing.Add(1)
				return errors.New("token not observed in patches")
			}
			return fmt.Errorf("wait for token: %w", err)
		}
		if !found {
			errCounts.tokenMissing.Add(1)
			return errors.New("token not observed in patches")
		}

		rtt := time.Since(start)
		counters.eventsComplete.Add(1)
		samples <- rtt

		if sleep := period - time.Since(start); sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}
	}
}

var errInitialFrame = errors.New("initial frame consumed")

// waitForToken reads patch frames until one carries a SetText with the token.
// An empty token consumes exactly one patches frame (the mount flush).
func waitForToken(
	ctx context.Context,
	conn *websocket.Conn,
	token string,
	counters *benchCounters,
	errCounts *benchErrors,
	patchOps *patchOpCounts,
) (bool, error) {
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return false, err
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			errCounts.frameDecodeFailures.Add(1)
			return false, err
		}

		switch frame.Type {
		case protocol.FramePatches:
			counters.patchFrames.Add(1)
			counters.patchBytes.Add(uint64(len(msg)))
			pf, err := protocol.DecodePatches(frame.Payload)
			if err != nil {
				errCounts.patchDecodeFailures.Add(1)
				return false, err
			}
			for _, p := range pf.Patches {
				patchOps.add(p.Op)
				counters.patchesTotal.Add(1)
				if token != "" && p.Op == protocol.PatchSetText && p.Value == token {
					return true, nil
				}
			}
			if token == "" {
				return false, errInitialFrame
			}

		case protocol.FrameError:
			errCounts.serverErrorFrames.Add(1)
			return false, errors.New("server error frame")
		}
	}
}

func makeToken(clientID int, seq uint64, payloadBytes int) string {
	seed := (uint64(clientID) << 32) ^ seq
	base := strconv.FormatUint(seed, 36)
	if len(base) >= payloadBytes {
		return base[len(base)-payloadBytes:]
	}
	return base + strings.Repeat("x", payloadBytes-len(base))
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func fnv1a32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	var h uint32 = offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	GC         gcInfo         `json:"gc"`
	Protocol   protocolInfo   `json:"protocol"`
	Errors     errorInfo      `json:"errors"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
}

type workloadInfo struct {
	Profile        string  `json:"profile"`
	Clients        int     `json:"clients"`
	DurationMS     int64   `json:"duration_ms"`
	RPSPerClient   float64 `json:"rps_per_client"`
	ListSize       int     `json:"list_size"`
	PayloadBytes   int     `json:"payload_bytes"`
	EventTimeoutMS int64   `json:"event_timeout_ms"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	EventsTotal        uint64  `json:"events_total"`
	EventsPerSec       float64 `json:"events_per_sec"`
	EventsPerSecClient float64 `json:"events_per_sec_per_client"`
}

type gcInfo struct {
	AllocMB      float64 `json:"alloc_mb"`
	HeapLiveMB   float64 `json:"heap_live_mb"`
	NumGC        uint32  `json:"num_gc"`
	PauseTotalMS float64 `json:"pause_total_ms"`
}

type protocolInfo struct {
	EventBytesTotal uint64            `json:"event_bytes_total"`
	PatchBytesTotal uint64            `json:"patch_bytes_total"`
	PatchFrames     uint64            `json:"patch_frames_total"`
	PatchesTotal    uint64            `json:"patches_total"`
	AvgEventBytes   float64           `json:"avg_event_bytes"`
	AvgPatchBytes   float64           `json:"avg_patch_bytes"`
	PatchesPerEvent float64           `json:"patches_per_event"`
	PatchOps        map[string]uint64 `json:"patch_ops"`
}

type errorInfo struct {
	TotalErrors         uint64 `json:"total_errors"`
	DialFailures        uint64 `json:"dial_failures"`
	EventWriteFailures  uint64 `json:"event_write_failures"`
	FrameDecodeFailures uint64 `json:"frame_decode_failures"`
	PatchDecodeFailures uint64 `json:"patch_decode_failures"`
	ServerErrorFrames   uint64 `json:"server_error_frames"`
	TokenMissing        uint64 `json:"token_missing"`
}

func buildReport(
	cfg benchConfig,
	elapsed time.Duration,
	latencies []time.Duration,
	counters *benchCounters,
	errCounts *benchErrors,
	patchOps *patchOpCounts,
	before runtime.MemStats,
	after runtime.MemStats,
) benchReport {
	eventsTotal := counters.eventsComplete.Load()
	eventsSent := counters.eventsSent.Load()
	patchesTotal := counters.patchesTotal.Load()
	eventBytes := counters.eventBytes.Load()
	patchBytes := counters.patchBytes.Load()

	elapsedSeconds := math.Max(0.001, elapsed.Seconds())
	eventsPerSec := float64(eventsTotal) / elapsedSeconds

	latency := latencyInfo{}
	if len(latencies) > 0 {
		latency = latencyInfo{
			Min: ms(latencies[0]),
			P50: ms(percentile(latencies, 0.50)),
			P95: ms(percentile(latencies, 0.95)),
			P99: ms(percentile(latencies, 0.99)),
			Max: ms(latencies[len(latencies)-1]),
		}
	}

	avgEventBytes := 0.0
	if eventsSent > 0 {
		avgEventBytes = float64(eventBytes) / float64(eventsSent)
	}
	avgPatchBytes := 0.0
	patchesPerEvent := 0.0
	if eventsTotal > 0 {
		avgPatchBytes = float64(patchBytes) / float64(eventsTotal)
		patchesPerEvent = float64(patchesTotal) / float64(eventsTotal)
	}

	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
		},
		Workload: workloadInfo{
			Profile:        cfg.Profile,
			Clients:        cfg.Clients,
			DurationMS:     cfg.Duration.Milliseconds(),
			RPSPerClient:   cfg.RPS,
			ListSize:       cfg.ListSize,
			PayloadBytes:   cfg.PayloadBytes,
			EventTimeoutMS: cfg.EventTimeout.Milliseconds(),
		},
		LatencyMS: latency,
		Throughput: throughputInfo{
			EventsTotal:        eventsTotal,
			EventsPerSec:       eventsPerSec,
			EventsPerSecClient: eventsPerSec / float64(cfg.Clients),
		},
		GC: gcInfo{
			AllocMB:      float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			HeapLiveMB:   float64(after.HeapAlloc) / (1024 * 1024),
			NumGC:        after.NumGC - before.NumGC,
			PauseTotalMS: ms(time.Duration(after.PauseTotalNs - before.PauseTotalNs)),
		},
		Protocol: protocolInfo{
			EventBytesTotal: eventBytes,
			PatchBytesTotal: patchBytes,
			PatchFrames:     counters.patchFrames.Load(),
			PatchesTotal:    patchesTotal,
			AvgEventBytes:   avgEventBytes,
			AvgPatchBytes:   avgPatchBytes,
			PatchesPerEvent: patchesPerEvent,
			PatchOps:        patchOps.snapshot(),
		},
		Errors: errorInfo{
			TotalErrors:         errCounts.totalErrors.Load(),
			DialFailures:        errCounts.dialFailures.Load(),
			EventWriteFailures:  errCounts.eventWriteFailures.Load(),
			FrameDecodeFailures: errCounts.frameDecodeFailures.Load(),
			PatchDecodeFailures: errCounts.patchDecodeFailures.Load(),
			ServerErrorFrames:   errCounts.serverErrorFrames.Load(),
			TokenMissing:        errCounts.tokenMissing.Load(),
		},
	}
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== Lumen Live Benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Clients: %d\n", report.Workload.Clients)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(report.Workload.DurationMS)*time.Millisecond)
	fmt.Fprintf(w, "Target per-client rate: %.2f events/s\n", report.Workload.RPSPerClient)
	fmt.Fprintf(w, "List size: %d\n", report.Workload.ListSize)
	fmt.Fprintf(w, "Payload bytes: %d\n", report.Workload.PayloadBytes)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total events: %d\n", report.Throughput.EventsTotal)
	fmt.Fprintf(w, "Throughput: %.1f events/s (%.2f per client)\n",
		report.Throughput.EventsPerSec, report.Throughput.EventsPerSecClient)
	fmt.Fprintf(w, "Errors: %d\n", report.Errors.TotalErrors)
	fmt.Fprintln(w)

	if report.LatencyMS.Max == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "RTT (client send -> server -> client receive+decode):")
		fmt.Fprintf(w, "  min: %.2f ms\n", report.LatencyMS.Min)
		fmt.Fprintf(w, "  p50: %.2f ms\n", report.LatencyMS.P50)
		fmt.Fprintf(w, "  p95: %.2f ms\n", report.LatencyMS.P95)
		fmt.Fprintf(w, "  p99: %.2f ms\n", report.LatencyMS.P99)
		fmt.Fprintf(w, "  max: %.2f ms\n", report.LatencyMS.Max)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Protocol (avg per event):")
	fmt.Fprintf(w, "  event bytes: %.1f\n", report.Protocol.AvgEventBytes)
	fmt.Fprintf(w, "  patch bytes: %.1f\n", report.Protocol.AvgPatchBytes)
	fmt.Fprintf(w, "  patches/event: %.2f\n", report.Protocol.PatchesPerEvent)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC (process-wide):")
	fmt.Fprintf(w, "  alloc:     %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  heap_live: %.2f MB\n", report.GC.HeapLiveMB)
	fmt.Fprintf(w, "  num_gc:    %d\n", report.GC.NumGC)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (total)\n", report.GC.PauseTotalMS)
}

func writeJSON(path string, report benchReport) error {
	var out io.Writer
	if path == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
