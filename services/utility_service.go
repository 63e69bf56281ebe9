package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/ipowise/ipo-backend/shared"
	"github.com/sirupsen/logrus"
)

// UtilityService provides text processing, normalization, and table parsing utilities
type UtilityService struct {
	serviceMetrics *shared.ServiceMetrics
}

// NewUtilityService creates a new utility service instance
func NewUtilityService() *UtilityService {
	return &UtilityService{
		serviceMetrics: shared.NewServiceMetrics("Utility_Service"),
	}
}

// NormalizeIPOName normalizes an IPO name for matching
// Removes common suffixes, special characters, converts to lowercase, and trims whitespace
func (s *UtilityService) NormalizeIPOName(name string) string {
	normalized := strings.ToLower(name)

	suffixes := []string{" ltd.", " ltd", " limited", " pvt.", " pvt", " private", " ipo", " sme"}
	for _, suffix := range suffixes {
		normalized = strings.TrimSuffix(normalized, suffix)
	}

	reg := regexp.MustCompile(`[^a-z0-9\s]`)
	normalized = reg.ReplaceAllString(normalized, "")

	return strings.TrimSpace(normalized)
}

// NormalizeTextContent cleans and standardizes scraped text content
func (s *UtilityService) NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}

	text = strings.TrimSpace(text)

	whitespaceRegex := regexp.MustCompile(`\s+`)
	text = whitespaceRegex.ReplaceAllString(text, " ")

	text = strings.ReplaceAll(text, "₹", "")
	text = strings.ReplaceAll(text, "Rs.", "")
	text = strings.ReplaceAll(text, "Rs ", "")

	return strings.TrimSpace(text)
}

// ParseDate parses dates with multiple format support
func (s *UtilityService) ParseDate(dateStr string) *time.Time {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" || s.IsNotAvailable(dateStr) {
		return nil
	}

	normalized := s.NormalizeTextContent(dateStr)

	formats := []string{
		"Mon, Jan 2, 2006",
		"Monday, January 2, 2006",
		"Jan 2, 2006",
		"January 2, 2006",
		"02 Jan 2006",
		"2 Jan 2006",
		"02-Jan-06",
		"2-Jan-06",
		"2006-01-02",
		"02-01-2006",
		"02/01/2006",
		"2/1/2006",
	}

	for _, format := range formats {
		t, err := time.Parse(format, normalized)
		if err == nil {
			return &t
		}
	}

	return nil
}

// ExtractNumeric extracts a numeric value from text with currency symbols
// and thousands separators
func (s *UtilityService) ExtractNumeric(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	reg := regexp.MustCompile(`[₹$€£¥]`)
	text = reg.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, ",", "")
	text = strings.ReplaceAll(text, " ", "")

	reg = regexp.MustCompile(`-?\d+\.?\d*`)
	match := reg.FindString(text)
	if match == "" {
		return 0
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}

	return value
}

// ParseSubscriptionRatio parses oversubscription text like "12.48x",
// "12.48 times" or plain "12.48" into a ratio. Returns nil when the
// figure is absent or a placeholder.
func (s *UtilityService) ParseSubscriptionRatio(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" || s.IsNotAvailable(text) {
		return nil
	}

	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, "times", "")
	text = strings.ReplaceAll(text, "x", "")

	reg := regexp.MustCompile(`\d+\.?\d*`)
	match := reg.FindString(text)
	if match == "" {
		return nil
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value < 0 {
		return nil
	}

	return &value
}

// ParsePriceBand parses price band text like "₹95 - ₹100" or "95-100"
// into separate low and high values
func (s *UtilityService) ParsePriceBand(priceBandText string) []float64 {
	if priceBandText == "" {
		return nil
	}

	cleanText := s.NormalizeTextContent(priceBandText)
	cleanText = strings.ReplaceAll(cleanText, "₹", "")
	cleanText = strings.ReplaceAll(cleanText, "$", "")
	cleanText = strings.ReplaceAll(cleanText, ",", "")
	cleanText = strings.TrimSpace(cleanText)

	separators := []string{" - ", "-", " to ", "to", " ~ ", "~"}

	for _, separator := range separators {
		if strings.Contains(cleanText, separator) {
			parts := strings.Split(cleanText, separator)
			if len(parts) >= 2 {
				var prices []float64
				for i := 0; i < 2; i++ {
					part := strings.TrimSpace(parts[i])
					if part == "" {
						continue
					}
					if price := s.ExtractNumeric(part); price > 0 {
						prices = append(prices, price)
					}
				}
				if len(prices) == 2 {
					return prices
				}
			}
		}
	}

	if price := s.ExtractNumeric(cleanText); price > 0 {
		return []float64{price}
	}

	return nil
}

// ExtractPercentage extracts percentage value without the percent symbol
func (s *UtilityService) ExtractPercentage(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	text = strings.ReplaceAll(text, "%", "")
	return s.ExtractNumeric(text)
}

// ExtractSignedPercentage extracts percentage value with sign handling.
// GMP gains can be negative, so the sign must survive parsing.
func (s *UtilityService) ExtractSignedPercentage(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" || s.IsNotAvailable(text) {
		return nil
	}

	text = strings.ReplaceAll(text, "%", "")
	text = strings.TrimSpace(text)

	reg := regexp.MustCompile(`[+-]?\s*\d+\.?\d*`)
	match := reg.FindString(text)
	if match == "" {
		return nil
	}

	match = strings.ReplaceAll(match, " ", "")

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}

	return &value
}

// NormalizeString normalizes empty strings to nil
func (s *UtilityService) NormalizeString(str string) *string {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil
	}
	return &str
}

// IsNotAvailable checks if a value indicates "not available"
func (s *UtilityService) IsNotAvailable(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))

	notAvailableValues := []string{
		"tba",
		"to be announced",
		"to be decided",
		"tbd",
		"n/a",
		"na",
		"not available",
		"not applicable",
		"not disclosed",
		"awaited",
		"pending",
		"coming soon",
		"will be updated",
		"yet to be announced",
		"--",
		"-",
		"",
		"nil",
		"null",
	}

	for _, na := range notAvailableValues {
		if text == na {
			return true
		}
	}

	return false
}

// TableRow represents a parsed table row with label and value
type TableRow struct {
	Index      int
	Label      string
	Value      string
	Confidence float64
}

// ParseHTMLTable parses an HTML table element and extracts rows with
// flexible matching. Returns all rows with their confidence scores.
func (s *UtilityService) ParseHTMLTable(table *colly.HTMLElement) []TableRow {
	var rows []TableRow

	table.ForEach("tr", func(_ int, tr *colly.HTMLElement) {
		var cells []string
		tr.ForEach("td, th", func(_ int, cell *colly.HTMLElement) {
			cells = append(cells, s.extractCellValue(cell))
		})

		if len(cells) < 2 {
			return
		}

		label := strings.TrimSpace(cells[0])
		value := strings.TrimSpace(cells[1])

		if label == "" && value == "" {
			return
		}

		confidence := s.calculateLabelConfidence(label)

		rows = append(rows, TableRow{
			Label:      label,
			Value:      value,
			Confidence: confidence,
		})
		logrus.Debugf("Parsed table row: %s -> %s (confidence: %.2f)", label, value, confidence)
	})

	return rows
}

// FindTableRowByLabel finds a table row by fuzzy label matching.
// Returns the best matching row and whether a usable match was found.
func (s *UtilityService) FindTableRowByLabel(rows []TableRow, targetLabels []string) (TableRow, bool) {
	var bestMatch TableRow
	var bestScore float64
	found := false

	for _, row := range rows {
		normalizedRowLabel := s.normalizeLabel(row.Label)

		for _, targetLabel := range targetLabels {
			normalizedTargetLabel := s.normalizeLabel(targetLabel)
			score := s.calculateMatchScore(normalizedRowLabel, normalizedTargetLabel)

			combinedScore := score * row.Confidence

			if combinedScore > bestScore {
				bestScore = combinedScore
				bestMatch = row
				found = true
			}
		}
	}

	if bestScore < 0.3 {
		return TableRow{}, false
	}

	logrus.Debugf("Best label match: '%s' with score %.2f", bestMatch.Label, bestScore)
	return bestMatch, found
}

// GetTargetLabelsForField returns possible label variations for a given field
func (s *UtilityService) GetTargetLabelsForField(fieldName string) []string {
	labelMap := map[string][]string{
		"open_date": {
			"ipo open date", "open date", "opening date", "opens on",
			"subscription open", "subscription opens", "opens",
		},
		"close_date": {
			"ipo close date", "close date", "closing date", "closes on",
			"subscription close", "subscription closes", "closes",
		},
		"listing_date": {
			"listing date", "listing", "lists on", "listing on",
			"expected listing", "tentative listing",
		},
		"price_band": {
			"price band", "issue price", "price range",
			"band", "price per share", "issue price band",
		},
		"lot_size": {
			"lot size", "market lot", "minimum lot",
			"application lot", "shares per lot",
		},
		"issue_size": {
			"issue size", "size", "total issue size",
			"public issue size", "fresh issue size",
		},
		"subscription_retail": {
			"retail", "rii", "retail individual", "retail individual investors",
			"retail investors", "retail category",
		},
		"subscription_snii": {
			"snii", "small nii", "nii (below 10 lakh)", "small hni",
			"non institutional (small)", "bnii below 10l",
		},
		"subscription_bnii": {
			"bnii", "big nii", "nii (above 10 lakh)", "big hni",
			"non institutional (big)",
		},
		"subscription_nii": {
			"nii", "non institutional", "non-institutional investors",
			"hni", "non institutional investors",
		},
		"subscription_qib": {
			"qib", "qualified institutional", "qualified institutional buyers",
			"institutional",
		},
		"subscription_total": {
			"total", "overall", "total subscription", "overall subscription",
			"subscription status", "subscribed",
		},
		"gmp": {
			"gmp", "grey market premium", "gray market premium",
			"premium", "gmp today",
		},
		"shareholder_quota": {
			"shareholder quota", "shareholder reservation", "shareholder category",
			"employee and shareholder quota",
		},
	}

	if labels, exists := labelMap[fieldName]; exists {
		return labels
	}

	return []string{fieldName}
}

// extractCellValue extracts text content from a table cell
func (s *UtilityService) extractCellValue(cell *colly.HTMLElement) string {
	text := strings.TrimSpace(cell.Text)

	if text == "" {
		cell.ForEach("span, div, p, a", func(_ int, nested *colly.HTMLElement) {
			if text == "" {
				text = strings.TrimSpace(nested.Text)
			}
		})
	}

	return s.cleanCellText(text)
}

// normalizeLabel normalizes a label for matching
func (s *UtilityService) normalizeLabel(label string) string {
	normalized := strings.ToLower(label)

	normalized = strings.ReplaceAll(normalized, ":", "")
	normalized = strings.ReplaceAll(normalized, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", "")
	normalized = strings.ReplaceAll(normalized, "(", "")
	normalized = strings.ReplaceAll(normalized, ")", "")
	normalized = strings.ReplaceAll(normalized, "-", " ")
	normalized = strings.ReplaceAll(normalized, "_", " ")

	normalized = strings.Join(strings.Fields(normalized), " ")

	return strings.TrimSpace(normalized)
}

// calculateMatchScore calculates similarity score between two normalized labels
func (s *UtilityService) calculateMatchScore(label1, label2 string) float64 {
	if label1 == label2 {
		return 1.0
	}

	if strings.Contains(label1, label2) || strings.Contains(label2, label1) {
		return 0.8
	}

	words1 := strings.Fields(label1)
	words2 := strings.Fields(label2)

	if len(words1) == 0 || len(words2) == 0 {
		return 0.0
	}

	matchingWords := 0
	for _, word1 := range words1 {
		for _, word2 := range words2 {
			if word1 == word2 {
				matchingWords++
				break
			}
		}
	}

	// Jaccard similarity (intersection / union)
	totalWords := len(words1) + len(words2) - matchingWords
	if totalWords == 0 {
		return 0.0
	}

	score := float64(matchingWords) / float64(totalWords)

	if matchingWords > 0 {
		score = math.Max(score, 0.4)
	}

	return score
}

// calculateLabelConfidence calculates confidence score for a label
func (s *UtilityService) calculateLabelConfidence(label string) float64 {
	if label == "" {
		return 0.0
	}

	confidence := 0.5

	normalizedLabel := s.normalizeLabel(label)

	ipoKeywords := []string{
		"date", "price", "size", "subscription", "listing", "open",
		"close", "issue", "band", "lot", "shares", "retail", "nii",
		"qib", "gmp", "premium", "quota", "shareholder",
	}

	for _, keyword := range ipoKeywords {
		if strings.Contains(normalizedLabel, keyword) {
			confidence += 0.2
			break
		}
	}

	if strings.Contains(label, ":") {
		confidence += 0.1
	}

	if len(normalizedLabel) < 3 {
		confidence -= 0.2
	}

	if s.IsNotAvailable(label) {
		confidence -= 0.3
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.0 {
		confidence = 0.0
	}

	return confidence
}

// cleanCellText cleans up extracted cell text
func (s *UtilityService) cleanCellText(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\t", " ")
	text = strings.ReplaceAll(text, "\r", " ")

	return strings.TrimSpace(text)
}

// GenerateSlug creates URL-friendly identifiers from company names
func (s *UtilityService) GenerateSlug(text string) string {
	if text == "" {
		return ""
	}

	slug := strings.ToLower(text)

	suffixes := []string{" ltd.", " ltd", " limited", " pvt.", " pvt", " private", " ipo", " inc.", " inc", " corp.", " corp", " company", " co."}
	for _, suffix := range suffixes {
		slug = strings.TrimSuffix(slug, suffix)
	}

	reg := regexp.MustCompile(`[^a-z0-9]+`)
	slug = reg.ReplaceAllString(slug, "-")

	reg = regexp.MustCompile(`-+`)
	slug = reg.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}

// GetServiceMetrics returns the current service metrics
func (s *UtilityService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}

// RecordOperation records a utility service operation with metrics tracking
func (s *UtilityService) RecordOperation(operationName string, success bool, processingTime time.Duration) {
	if s.serviceMetrics != nil {
		s.serviceMetrics.RecordRequest(success, processingTime)
		s.serviceMetrics.IncrementCustomCounter(operationName)
	}
}

// LogMetricsSummary logs the metrics summary
func (s *UtilityService) LogMetricsSummary() {
	if s.serviceMetrics != nil {
		s.serviceMetrics.LogSummary()
	}
}
