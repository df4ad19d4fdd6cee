// Command smoke_eval drives the admin surface of a running evaluation
// API end to end: login, create an evaluation, read progress, export the
// roster, and close it. Exits non-zero on the first failure so it can
// gate a deploy.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type step struct {
	Name     string
	Method   string
	Path     string
	Status   int
	Duration time.Duration
	Error    error
}

func main() {
	var (
		base       string
		email      string
		password   string
		cronSecret string
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL including prefix")
	flag.StringVar(&email, "email", "", "Admin email")
	flag.StringVar(&password, "password", "", "Admin password")
	flag.StringVar(&cronSecret, "cron-secret", "", "Cron secret; when set the reminder sweep is exercised too")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if email == "" || password == "" {
		log.Fatal("both -email and -password are required")
	}

	client := &http.Client{Timeout: timeout}
	runner := &runner{client: client, base: strings.TrimRight(base, "/"), cronSecret: cronSecret}

	token, err := runner.login(email, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	runner.token = token

	evaluationID, err := runner.createEvaluation()
	if err != nil {
		log.Fatalf("create evaluation failed: %v", err)
	}

	runner.do("list evaluations", http.MethodGet, "/evaluations?page=1&page_size=5", nil, http.StatusOK)
	runner.do("read progress", http.MethodGet, "/evaluations/"+evaluationID+"/progress", nil, http.StatusOK)
	runner.do("export roster", http.MethodGet, "/evaluations/"+evaluationID+"/progress/export", nil, http.StatusOK)
	if cronSecret != "" {
		runner.do("reminder sweep", http.MethodPost, "/reminders/run", nil, http.StatusOK)
	}
	runner.do("close evaluation", http.MethodPost, "/evaluations/"+evaluationID+"/close", nil, http.StatusOK)
	runner.do("close again is a conflict", http.MethodPost, "/evaluations/"+evaluationID+"/close", nil, http.StatusConflict)

	failed := printReport(runner.steps)
	if failed > 0 {
		os.Exit(1)
	}
}

type runner struct {
	client     *http.Client
	base       string
	token      string
	cronSecret string
	steps      []step
}

func (r *runner) login(email, password string) (string, error) {
	body, err := r.request(http.MethodPost, "/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, http.StatusOK, "login")
	if err != nil {
		return "", err
	}
	var parsed struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if parsed.Data.AccessToken == "" {
		return "", fmt.Errorf("login returned no access token")
	}
	return parsed.Data.AccessToken, nil
}

func (r *runner) createEvaluation() (string, error) {
	deadline := time.Now().AddDate(0, 0, 14).Format("2006-01-02")
	body, err := r.request(http.MethodPost, "/evaluations", map[string]interface{}{
		"organization_name": "Smoke Test Org",
		"ceo_name":          "Smoke Test CEO",
		"admin_name":        "Smoke Admin",
		"admin_email":       "smoke+admin@example.org",
		"deadline":          deadline,
		"evaluators": []map[string]string{
			{"name": "Smoke Evaluator One", "email": "smoke+one@example.org"},
			{"name": "Smoke Evaluator Two", "email": "smoke+two@example.org"},
			{"name": "Smoke Evaluator Three", "email": "smoke+three@example.org"},
		},
	}, http.StatusCreated, "create evaluation")
	if err != nil {
		return "", err
	}
	var parsed struct {
		Data struct {
			EvaluationID string `json:"evaluation_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	if parsed.Data.EvaluationID == "" {
		return "", fmt.Errorf("create returned no evaluation id")
	}
	return parsed.Data.EvaluationID, nil
}

func (r *runner) do(name, method, path string, payload interface{}, wantStatus int) {
	_, _ = r.request(method, path, payload, wantStatus, name)
}

func (r *runner) request(method, path string, payload interface{}, wantStatus int, name string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			r.record(name, method, path, 0, 0, err)
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, r.base+path, reader)
	if err != nil {
		r.record(name, method, path, 0, 0, err)
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Cron routes use the shared scheduler secret, everything else the
	// admin JWT.
	if strings.HasPrefix(path, "/reminders") {
		req.Header.Set("Authorization", "Bearer "+r.cronSecret)
	} else if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		r.record(name, method, path, 0, elapsed, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.record(name, method, path, resp.StatusCode, elapsed, fmt.Errorf("read body: %w", err))
		return nil, err
	}

	if resp.StatusCode != wantStatus {
		err := fmt.Errorf("got status %d, want %d: %s", resp.StatusCode, wantStatus, truncate(body))
		r.record(name, method, path, resp.StatusCode, elapsed, err)
		return body, err
	}

	r.record(name, method, path, resp.StatusCode, elapsed, nil)
	return body, nil
}

func (r *runner) record(name, method, path string, status int, elapsed time.Duration, err error) {
	r.steps = append(r.steps, step{Name: name, Method: method, Path: path, Status: status, Duration: elapsed, Error: err})
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

func printReport(steps []step) int {
	fmt.Println("Smoke Test Report")
	fmt.Println("=================")
	failed := 0
	for _, s := range steps {
		status := "OK"
		if s.Error != nil {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s (%s %s)\n", status, s.Name, s.Method, s.Path)
		fmt.Printf("  Status: %d (%s)\n", s.Status, s.Duration)
		if s.Error != nil {
			fmt.Printf("  Error: %v\n", s.Error)
		}
	}
	fmt.Printf("Failed steps: %d\n", failed)
	return failed
}
