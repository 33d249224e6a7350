package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"reelscout/internal/record"
)

var csvHeader = []string{
	"rank", "score", "title", "url", "duration_minutes", "views", "uploader",
	"query", "era", "genre", "relevance", "verified", "verified_title",
	"release_year", "confidence",
}

// WriteCSV renders the ranked dataset as CSV.
func WriteCSV(w io.Writer, ranked []record.Ranked) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range ranked {
		row := []string{
			strconv.Itoa(r.Rank),
			strconv.FormatFloat(r.Score, 'f', 4, 64),
			r.Candidate.Title,
			r.Candidate.SourceURL,
			strconv.Itoa(r.Candidate.Duration / 60),
			strconv.FormatInt(r.Candidate.Views, 10),
			r.Candidate.Uploader,
			r.Candidate.Query,
			r.Classification.Era,
			r.Classification.Genre,
			strconv.Itoa(r.Classification.Relevance),
			"false",
			"",
			"",
			"",
		}
		if v := r.Verification; v != nil && v.Verified {
			row[11] = "true"
			row[12] = v.Title
			row[13] = strconv.Itoa(v.ReleaseYear)
			row[14] = strconv.FormatFloat(v.Confidence, 'f', 1, 64)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

type exportMovie struct {
	Rank            int      `json:"rank"`
	Score           float64  `json:"score"`
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	DurationSeconds int      `json:"duration_seconds"`
	Views           int64    `json:"views"`
	Uploader        string   `json:"uploader,omitempty"`
	Query           string   `json:"query,omitempty"`
	IsOldMovie      bool     `json:"is_old_movie"`
	Era             string   `json:"era,omitempty"`
	Genre           string   `json:"genre,omitempty"`
	Relevance       int      `json:"relevance"`
	Heuristic       bool     `json:"heuristic,omitempty"`
	Verified        bool     `json:"verified"`
	VerifiedTitle   string   `json:"verified_title,omitempty"`
	ReleaseYear     int      `json:"release_year,omitempty"`
	RuntimeMinutes  int      `json:"runtime_minutes,omitempty"`
	Companies       []string `json:"companies,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
}

type exportEnvelope struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Count       int           `json:"count"`
	Movies      []exportMovie `json:"movies"`
}

// WriteJSON renders the ranked dataset as an indented JSON document.
func WriteJSON(w io.Writer, run Run, ranked []record.Ranked) error {
	envelope := exportEnvelope{
		RunID:       run.ID,
		GeneratedAt: run.FinishedAt.UTC(),
		Count:       len(ranked),
		Movies:      make([]exportMovie, 0, len(ranked)),
	}
	for _, r := range ranked {
		movie := exportMovie{
			Rank:            r.Rank,
			Score:           r.Score,
			Title:           r.Candidate.Title,
			URL:             r.Candidate.SourceURL,
			DurationSeconds: r.Candidate.Duration,
			Views:           r.Candidate.Views,
			Uploader:        r.Candidate.Uploader,
			Query:           r.Candidate.Query,
			IsOldMovie:      r.Classification.IsOldMovie,
			Era:             r.Classification.Era,
			Genre:           r.Classification.Genre,
			Relevance:       r.Classification.Relevance,
			Heuristic:       r.Classification.Heuristic,
		}
		if v := r.Verification; v != nil && v.Verified {
			movie.Verified = true
			movie.VerifiedTitle = v.Title
			movie.ReleaseYear = v.ReleaseYear
			movie.RuntimeMinutes = v.RuntimeMinutes
			movie.Companies = v.Companies
			movie.Confidence = v.Confidence
		}
		envelope.Movies = append(envelope.Movies, movie)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(envelope)
}

// ExportFiles writes the CSV and JSON artifacts for a run into dir and returns
// their paths.
func ExportFiles(dir string, run Run, ranked []record.Ranked) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create export directory: %w", err)
	}
	stamp := run.FinishedAt.UTC().Format("20060102-150405")

	csvPath := filepath.Join(dir, fmt.Sprintf("movies-%s.csv", stamp))
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", "", fmt.Errorf("create csv export: %w", err)
	}
	if err := WriteCSV(csvFile, ranked); err != nil {
		_ = csvFile.Close()
		return "", "", err
	}
	if err := csvFile.Close(); err != nil {
		return "", "", fmt.Errorf("close csv export: %w", err)
	}

	jsonPath := filepath.Join(dir, fmt.Sprintf("movies-%s.json", stamp))
	jsonFile, err := os.Create(jsonPath)
	if err != nil {
		return "", "", fmt.Errorf("create json export: %w", err)
	}
	if err := WriteJSON(jsonFile, run, ranked); err != nil {
		_ = jsonFile.Close()
		return "", "", err
	}
	if err := jsonFile.Close(); err != nil {
		return "", "", fmt.Errorf("close json export: %w", err)
	}

	return csvPath, jsonPath, nil
}
