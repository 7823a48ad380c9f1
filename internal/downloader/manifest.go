package downloader

import (
	"bufio"
	"encoding/json"
	"os"

	"wparchive/pkg/dump"
	errs "wparchive/pkg/errors"
	"wparchive/pkg/logger"
	"wparchive/pkg/storage"
)

// ManifestPath is the archive-relative location of the media manifest, the
// JSONL dump of the /wp/v2/media route.
var ManifestPath = dump.RouteFilePath("/wp/v2/media", ".jsonl")

// mediaRecord carries the only manifest field the downloader needs.
type mediaRecord struct {
	SourceURL string `json:"source_url"`
}

// ReadManifest extracts the source URL from every record in the media
// manifest. A missing manifest is a typed error telling the user to dump
// first; malformed lines are logged and skipped so one broken record cannot
// sink the whole session.
func ReadManifest(store *storage.Manager, log logger.Logger) ([]string, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	file, err := os.Open(store.Path(ManifestPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NewManifestNotFound(store.Path(ManifestPath))
		}
		return nil, err
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record mediaRecord
		if err := json.Unmarshal(line, &record); err != nil {
			log.WarnWithFields("skipping malformed manifest line", map[string]interface{}{
				"line":  lineNum,
				"error": err.Error(),
			})
			continue
		}
		if record.SourceURL == "" {
			log.WarnWithFields("skipping manifest record without source_url", map[string]interface{}{
				"line": lineNum,
			})
			continue
		}

		urls = append(urls, record.SourceURL)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return urls, nil
}
