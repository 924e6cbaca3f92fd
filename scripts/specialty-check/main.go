// Package main checks a running portal specialty by specialty.
//
// It pulls the active specialties through the portal and, for each one,
// verifies that doctors are listed and that the suggestion endpoint returns
// bookable slots for the requested date.
//
// Usage:
//
//	go run ./scripts/specialty-check --date=2026-10-20 [--tier=1|2] [--api=URL]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/internal/suggest"
)

type specialtyResult struct {
	Name          string
	DoctorPass    *bool
	DoctorDetail  string
	SuggestPass   *bool
	SuggestDetail string
}

var (
	flagAPI  string
	flagDate string
	flagTier int

	browserID = "smoke-" + uuid.NewString()[:8]
	client    = &http.Client{Timeout: 20 * time.Second}
)

func init() {
	flag.StringVar(&flagAPI, "api", "http://localhost:8080", "Portal base URL")
	flag.StringVar(&flagDate, "date", time.Now().AddDate(0, 0, 1).Format("2006-01-02"), "Date to request suggestions for")
	flag.IntVar(&flagTier, "tier", 2, "Check tier: 1=doctors, 2=+suggestions")
}

func getJSON(path string, query url.Values, out any) error {
	u := strings.TrimRight(flagAPI, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Browser-ID", browserID)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func checkDoctors(specialtyID string) (bool, string) {
	var resp struct {
		Doctors []portalapi.Doctor `json:"doctors"`
	}
	if err := getJSON("/api/doctors", url.Values{"specialty": {specialtyID}}, &resp); err != nil {
		return false, err.Error()
	}
	if len(resp.Doctors) == 0 {
		return false, "no doctors listed"
	}
	return true, fmt.Sprintf("%d doctors", len(resp.Doctors))
}

func checkSuggestions(specialtyID string) (bool, string) {
	var resp struct {
		Suggestions []suggest.Suggestion `json:"suggestions"`
	}
	query := url.Values{"specialty": {specialtyID}, "date": {flagDate}}
	if err := getJSON("/api/suggestions", query, &resp); err != nil {
		return false, err.Error()
	}
	if len(resp.Suggestions) == 0 {
		return false, "no suggestions for " + flagDate
	}
	doctors := make(map[string]struct{})
	for _, s := range resp.Suggestions {
		doctors[s.DoctorID] = struct{}{}
	}
	return true, fmt.Sprintf("%d suggestions across %d doctors", len(resp.Suggestions), len(doctors))
}

func boolIcon(b *bool) string {
	if b == nil {
		return " - "
	}
	if *b {
		return " ✅ "
	}
	return " ❌ "
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printReport(results []specialtyResult) int {
	fmt.Printf("\nSPECIALTY CHECK REPORT (%s)\n", flagDate)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("%-40s| Doctors | Suggestions\n", "Specialty")
	fmt.Println(strings.Repeat("-", 70))

	failed := 0
	for _, r := range results {
		fmt.Printf("%-40s|  %s  |  %s\n", truncate(r.Name, 40), boolIcon(r.DoctorPass), boolIcon(r.SuggestPass))
		for _, p := range []*bool{r.DoctorPass, r.SuggestPass} {
			if p != nil && !*p {
				failed++
			}
		}
	}
	fmt.Println(strings.Repeat("-", 70))

	for _, r := range results {
		if r.DoctorPass != nil && !*r.DoctorPass {
			fmt.Printf("  ❌ %s / Doctors: %s\n", r.Name, r.DoctorDetail)
		}
		if r.SuggestPass != nil && !*r.SuggestPass {
			fmt.Printf("  ❌ %s / Suggestions: %s\n", r.Name, r.SuggestDetail)
		}
	}
	if failed == 0 {
		fmt.Println("✅ ALL CHECKS PASSED")
	} else {
		fmt.Printf("\n❌ %d CHECKS FAILED\n", failed)
	}
	return failed
}

func main() {
	flag.Parse()

	var health map[string]string
	if err := getJSON("/health", nil, &health); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: portal unhealthy: %v\n", err)
		os.Exit(1)
	}

	var resp struct {
		Specialties []portalapi.Specialty `json:"specialties"`
	}
	if err := getJSON("/api/specialties", nil, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR fetching specialties: %v\n", err)
		os.Exit(1)
	}
	if len(resp.Specialties) == 0 {
		fmt.Fprintln(os.Stderr, "ERROR: no active specialties")
		os.Exit(1)
	}
	sort.Slice(resp.Specialties, func(i, j int) bool { return resp.Specialties[i].Name < resp.Specialties[j].Name })

	results := make([]specialtyResult, 0, len(resp.Specialties))
	for idx, sp := range resp.Specialties {
		fmt.Printf("[%d/%d] Checking: %s\n", idx+1, len(resp.Specialties), sp.Name)
		r := specialtyResult{Name: sp.Name}

		pass, detail := checkDoctors(sp.ID)
		r.DoctorPass, r.DoctorDetail = &pass, detail

		if flagTier >= 2 && pass {
			pass2, detail2 := checkSuggestions(sp.ID)
			r.SuggestPass, r.SuggestDetail = &pass2, detail2
		}
		results = append(results, r)
	}

	if printReport(results) > 0 {
		os.Exit(1)
	}
}
