//go:build integration

package test_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("PANOKEET_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "PANOKEET_TEST_BIN not set; run: make test-integration")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// mockBackend is a scripted stand-in for the transcription backend. A
// toggle-off immediately produces a pending transcript, as if
// transcription finished instantly.
type mockBackend struct {
	mu         sync.Mutex
	recording  bool
	pending    bool
	transcript string
	duration   float64
	saves      []saveReq
	cancels    int
}

type saveReq struct {
	RawText   string  `json:"raw_text"`
	FinalText string  `json:"final_text"`
	Duration  float64 `json:"duration"`
	WasEdited bool    `json:"was_edited"`
}

func (b *mockBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/toggle", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.recording = !b.recording
		if !b.recording {
			b.pending = true
			b.transcript = "hello from the mock backend"
			b.duration = 1.2
		}
		b.mu.Unlock()
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		rec := b.recording
		b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "recording": rec})
	})
	mux.HandleFunc("/pending", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		resp := map[string]any{"pending": b.pending, "transcript": b.transcript, "duration": b.duration}
		b.mu.Unlock()
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/level", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		rec := b.recording
		b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"level": 0.42, "recording": rec})
	})
	mux.HandleFunc("/save", func(w http.ResponseWriter, r *http.Request) {
		var req saveReq
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.saves = append(b.saves, req)
		b.pending = false
		b.mu.Unlock()
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/cancel", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.cancels++
		b.pending = false
		b.recording = false
		b.mu.Unlock()
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

func runPanokeet(t *testing.T, backendURL, stdin string) (logDir, output string) {
	t.Helper()
	logDir = t.TempDir()

	cmd := exec.Command(testBinary, "-test", "-backend", backendURL, "-logpath", logDir)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = os.Environ()

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("panokeet exited with error: %v\noutput: %s", err, out)
	}
	return logDir, string(out)
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

// Hold past the long-press threshold so keydown/keyup produce a start
// and a stop toggle.
func holdAndRelease() []string {
	return []string{"KEYDOWN", "SLEEP 500", "KEYUP"}
}

func TestDictationRoundTrip(t *testing.T) {
	backend := &mockBackend{}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	script := append(holdAndRelease(), "SLEEP 800", "SAVE", "SLEEP 300", "QUIT")
	logDir, _ := runPanokeet(t, srv.URL, cmds(script...))

	backend.mu.Lock()
	saves := backend.saves
	backend.mu.Unlock()
	if len(saves) != 1 {
		t.Fatalf("expected 1 save request, got %d", len(saves))
	}
	if saves[0].FinalText != "hello from the mock backend" {
		t.Errorf("final_text = %q", saves[0].FinalText)
	}
	if saves[0].WasEdited {
		t.Error("unedited save reported was_edited=true")
	}

	transcript := readLog(t, logDir, "transcript_log.txt")
	if !strings.Contains(transcript, "hello from the mock backend") {
		t.Errorf("transcript_log.txt missing saved text: %q", transcript)
	}
	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "transcript_saved") {
		t.Error("expected transcript_saved in diagnostics")
	}
	if !strings.Contains(diag, "transition") {
		t.Error("expected state transitions in diagnostics")
	}
}

func TestEditedSaveReportsWasEdited(t *testing.T) {
	backend := &mockBackend{}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	script := append(holdAndRelease(), "SLEEP 800", "SAVE corrected text", "SLEEP 300", "QUIT")
	runPanokeet(t, srv.URL, cmds(script...))

	backend.mu.Lock()
	saves := backend.saves
	backend.mu.Unlock()
	if len(saves) != 1 {
		t.Fatalf("expected 1 save request, got %d", len(saves))
	}
	if saves[0].FinalText != "corrected text" {
		t.Errorf("final_text = %q", saves[0].FinalText)
	}
	if saves[0].RawText != "hello from the mock backend" {
		t.Errorf("raw_text = %q", saves[0].RawText)
	}
	if !saves[0].WasEdited {
		t.Error("edited save reported was_edited=false")
	}
}

func TestCancelDiscardsTranscript(t *testing.T) {
	backend := &mockBackend{}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	script := append(holdAndRelease(), "SLEEP 800", "CANCEL", "SLEEP 300", "QUIT")
	logDir, _ := runPanokeet(t, srv.URL, cmds(script...))

	backend.mu.Lock()
	saves := backend.saves
	cancels := backend.cancels
	backend.mu.Unlock()
	if len(saves) != 0 {
		t.Errorf("expected no save requests, got %d", len(saves))
	}
	if cancels == 0 {
		t.Error("expected a cancel request")
	}
	transcript := readLog(t, logDir, "transcript_log.txt")
	if strings.Contains(transcript, "hello from the mock backend") {
		t.Error("discarded transcript appeared in transcript_log.txt")
	}
}

func TestStateCommandReportsReview(t *testing.T) {
	backend := &mockBackend{}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	script := append(holdAndRelease(), "SLEEP 800", "STATE", "SAVE", "SLEEP 300", "STATE", "QUIT")
	_, out := runPanokeet(t, srv.URL, cmds(script...))

	if !strings.Contains(out, "showing_transcript") {
		t.Errorf("expected showing_transcript in output, got: %q", out)
	}
	if !strings.Contains(out, "ready") {
		t.Errorf("expected ready after save, got: %q", out)
	}
}
