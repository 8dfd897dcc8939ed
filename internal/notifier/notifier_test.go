package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/dosekeep/internal/constants"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/service"
	"github.com/julianstephens/dosekeep/internal/storage"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func TestGetTrayAppConfigDir(t *testing.T) {
	tempDir := t.TempDir()

	oldUserConfigDirFunc := userConfigDirFunc
	defer func() { userConfigDirFunc = oldUserConfigDirFunc }()
	userConfigDirFunc = func() (string, error) {
		return tempDir, nil
	}

	expectedDefault := filepath.Join(tempDir, constants.TrayAppIdentifier)
	dir, err := GetTrayAppConfigDir()
	require.NoError(t, err)
	assert.Equal(t, expectedDefault, dir)

	require.NoError(t, os.MkdirAll(expectedDefault, 0755))
	customDir := "/custom/dosekeep/dir"
	settingsJSON := fmt.Sprintf(`{"settings": {"lockfile_dir": "%s"}}`, customDir)
	require.NoError(t, os.WriteFile(filepath.Join(expectedDefault, "settings.json"), []byte(settingsJSON), 0644))

	dir, err = GetTrayAppConfigDir()
	require.NoError(t, err)
	assert.Equal(t, customDir, dir)
}

func TestFindAndValidateTrayProcess(t *testing.T) {
	oldFindProcessFunc := findProcessFunc
	defer func() { findProcessFunc = oldFindProcessFunc }()

	lockfilePath := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	_, _, err := findAndValidateTrayProcess(lockfilePath)
	assert.Error(t, err, "missing lockfile")

	for name, content := range map[string]string{
		"two parts":     "8080|12345",
		"garbage":       "invalid",
		"empty secret":  "8080|12345|",
		"empty port":    "|12345|testsecret123",
		"port too high": "99999|12345|testsecret123",
		"bad pid":       "8080|abc|testsecret123",
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(lockfilePath, []byte(content), 0644))
			_, _, err := findAndValidateTrayProcess(lockfilePath)
			assert.Error(t, err)
		})
	}

	require.NoError(t, os.WriteFile(lockfilePath, []byte("8080|12345|testsecret123"), 0644))

	findProcessFunc = func(pid int) (ps.Process, error) { return nil, nil }
	_, _, err = findAndValidateTrayProcess(lockfilePath)
	assert.Error(t, err, "process not running")

	findProcessFunc = func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: "other-app"}, nil
	}
	_, _, err = findAndValidateTrayProcess(lockfilePath)
	assert.Error(t, err, "wrong executable")

	findProcessFunc = func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: "dosekeep-tray"}, nil
	}
	port, secret, err := findAndValidateTrayProcess(lockfilePath)
	require.NoError(t, err)
	assert.Equal(t, "8080", port)
	assert.Equal(t, "testsecret123", secret)
}

func TestSendNotification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("X-Dosekeep-Secret") != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}

		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload.Text == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	parts := strings.Split(server.URL, ":")
	port := parts[len(parts)-1]

	assert.NoError(t, sendNotification(port, "test-secret", WebhookPayload{Text: "hello"}))
	assert.Error(t, sendNotification(port, "", WebhookPayload{Text: "hello"}))
	assert.Error(t, sendNotification(port, "wrong-secret", WebhookPayload{Text: "hello"}))
	assert.Error(t, sendNotification(port, "test-secret", WebhookPayload{Text: "fail"}))
}

func TestNotify_RetriesThenFails(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	parts := strings.Split(server.URL, ":")
	port := parts[len(parts)-1]

	configDir := t.TempDir()
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)
	require.NoError(t, os.MkdirAll(trayDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(port+"|42|s3cret"), 0644))

	oldUserConfigDirFunc, oldFindProcessFunc, oldDelay := userConfigDirFunc, findProcessFunc, retryDelay
	defer func() {
		userConfigDirFunc, findProcessFunc, retryDelay = oldUserConfigDirFunc, oldFindProcessFunc, oldDelay
	}()
	userConfigDirFunc = func() (string, error) { return configDir, nil }
	findProcessFunc = func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: "dosekeep-tray"}, nil
	}
	retryDelay = time.Millisecond

	err := New().Notify("hello")
	require.Error(t, err)
	assert.Equal(t, constants.NotifyMaxRetries, attempts)
}

type recordingSender struct {
	texts []string
}

func (r *recordingSender) Notify(text string) error {
	r.texts = append(r.texts, text)
	return nil
}

func TestStockHook(t *testing.T) {
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	med := models.Medication{
		ID: "m1", Name: "Iron", Kind: models.MedicationKindScheduled, Active: true,
		RepeatUnit: models.RepeatUnitDay, Interval: 1, StartDate: "2024-01-01",
		DoseAmount: decimal.NewFromInt(1), TrackStock: true,
	}

	tests := []struct {
		name    string
		op      service.Op
		stock   int64
		enabled bool
		want    string
	}{
		{"low stock", service.OpSetTaken, 3, true, "Iron runs out in 3 day(s), time to refill"},
		{"plenty", service.OpSetTaken, 30, true, ""},
		{"empty", service.OpSetTaken, 0, true, "Iron is out of stock"},
		{"disabled", service.OpSetTaken, 3, false, ""},
		{"other op", service.OpRegenerate, 3, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			m := med
			m.Stock = decimal.NewFromInt(tt.stock)
			hook := StockHook(sender, func() bool { return tt.enabled })
			hook(context.Background(), service.Event{
				Op:        tt.op,
				At:        at,
				Changeset: storage.Changeset{UpdateMedications: []models.Medication{m}},
			})
			if tt.want == "" {
				assert.Empty(t, sender.texts)
				return
			}
			assert.Equal(t, []string{tt.want}, sender.texts)
		})
	}
}

func TestStockHook_CountsFromTomorrowAfterTodaysDose(t *testing.T) {
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	med := models.Medication{
		ID: "m1", Name: "Iron", Kind: models.MedicationKindScheduled, Active: true,
		RepeatUnit: models.RepeatUnitDay, Interval: 2, StartDate: "2024-01-10",
		DoseAmount: decimal.NewFromInt(1), TrackStock: true,
	}

	tests := []struct {
		name  string
		stock int64
		day   string
		want  string
	}{
		// Doses left on Jan 12, 14, 16 and 18.
		{"today taken, enough left", 4, "2024-01-10", ""},
		{"today taken, low", 3, "2024-01-10", "Iron runs out in 6 day(s), time to refill"},
		// A late entry for an earlier day leaves today's dose outstanding.
		{"past day taken", 4, "2024-01-08", "Iron runs out in 7 day(s), time to refill"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			m := med
			m.Stock = decimal.NewFromInt(tt.stock)
			hook := StockHook(sender, func() bool { return true })
			hook(context.Background(), service.Event{
				Op: service.OpSetTaken,
				At: at,
				Changeset: storage.Changeset{
					UpdateMedications: []models.Medication{m},
					UpdateLogs:        []models.LogEntry{{ID: "l1", MedicationID: m.ID, Day: tt.day, Taken: true}},
				},
			})
			if tt.want == "" {
				assert.Empty(t, sender.texts)
				return
			}
			assert.Equal(t, []string{tt.want}, sender.texts)
		})
	}
}
