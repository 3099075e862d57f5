package source

import "github.com/bleubryce/AgentX-AI-sub001/internal/record"

// JSONExtractor handles crawl targets that serve machine-readable listing
// feeds. HTML selector extraction is site-specific and lives outside this
// module; callers plug their own Extractor in for those sites.
type JSONExtractor struct{}

func (JSONExtractor) Extract(url string, body []byte) ([]record.Raw, error) {
	return decodeRecords(body)
}
