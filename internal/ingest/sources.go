package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadSources reads a CSV of RSS source URLs, one per line, first column.
// A header row named "url" is skipped. Blank lines and comment lines
// starting with '#' are ignored.
func LoadSources(csvPath string) ([]string, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("opening sources file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var urls []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading sources file: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		url := strings.TrimSpace(record[0])
		if url == "" || url == "url" || strings.HasPrefix(url, "#") {
			continue
		}
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			log.Warn().Str("url", url).Msg("Skipping non-HTTP source")
			continue
		}
		urls = append(urls, url)
	}

	log.Info().Int("sources", len(urls)).Str("path", csvPath).Msg("Loaded import sources")
	return urls, nil
}
