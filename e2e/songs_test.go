package e2e

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func validSongCreateBody() string {
	return `{
		"bookName": "Psalms",
		"chapter": 23,
		"verseRange": "1-6",
		"style": "worship, acoustic",
		"title": "The Lord Is My Shepherd"
	}`
}

func TestSongCreate_Success(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/songs/create", validSongCreateBody())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusAccepted)

	result := parseJSON(t, resp)
	if result["jobId"] == nil || result["jobId"] == "" {
		t.Error("expected 'jobId' in response")
	}
	if result["status"] != "queued" {
		t.Errorf("expected status 'queued', got %v", result["status"])
	}
}

func TestSongCreate_NoAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/songs/create", validSongCreateBody(), nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestSongCreate_MissingFields(t *testing.T) {
	ta := setupApp(t)

	body := `{"bookName": "Psalms"}`
	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/songs/create", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestSongCreate_InvalidVerseRange(t *testing.T) {
	ta := setupApp(t)

	body := `{
		"bookName": "Psalms",
		"chapter": 23,
		"verseRange": "6-1",
		"style": "worship",
		"title": "Backwards Range"
	}`
	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/songs/create", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestSongStatus_Success(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/songs/create", validSongCreateBody())
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)
	createResult := parseJSON(t, resp)
	jobID := createResult["jobId"].(string)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/songs/status/"+jobID, "")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	statusResult := parseJSON(t, resp)
	if statusResult["jobId"] != jobID {
		t.Errorf("expected jobId %s, got %v", jobID, statusResult["jobId"])
	}
	if statusResult["status"] == nil {
		t.Error("expected 'status' field in response")
	}
}

func TestSongStatus_NotFound(t *testing.T) {
	ta := setupApp(t)

	fakeJobID := uuid.New().String()
	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/songs/status/"+fakeJobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)

	result := parseJSON(t, resp)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "NOT_FOUND" {
		t.Errorf("expected error code NOT_FOUND, got %v", errObj["code"])
	}
}

func TestSongResult_NotCompleted(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/songs/create", validSongCreateBody())
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)
	createResult := parseJSON(t, resp)
	jobID := createResult["jobId"].(string)

	// No worker is running in this test, so the job stays queued.
	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/songs/result/"+jobID, "")
	if err != nil {
		t.Fatalf("result request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestSongCancel_Success(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/songs/create", validSongCreateBody())
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)
	createResult := parseJSON(t, resp)
	jobID := createResult["jobId"].(string)

	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/songs/cancel/"+jobID, "")
	if err != nil {
		t.Fatalf("cancel request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	cancelResult := parseJSON(t, resp)
	if cancelResult["success"] != true {
		t.Errorf("expected success true, got %v", cancelResult["success"])
	}
	if cancelResult["status"] != "canceled" {
		t.Errorf("expected status 'canceled', got %v", cancelResult["status"])
	}
}
