package naver

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/kfin/internal/contracts"
)

var reportDateRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{2}$`)

// FetchResearchReports crawls broker research entries for a stock from
// the Naver Finance research board (최대 maxPages 페이지).
func (c *Client) FetchResearchReports(ctx context.Context, ticker string, maxPages int) ([]*contracts.ResearchReport, error) {
	if maxPages <= 0 {
		maxPages = 3
	}

	var reports []*contracts.ResearchReport

	for page := 1; page <= maxPages; page++ {
		select {
		case <-ctx.Done():
			return reports, ctx.Err()
		default:
		}

		params := url.Values{}
		params.Set("keyword", ticker)
		params.Set("brokerCode", "")
		params.Set("searchType", "itemCode")
		params.Set("itemCode", ticker)
		params.Set("page", strconv.Itoa(page))

		html, err := c.fetchHTML(ctx, "/research/company_list.naver", params)
		if err != nil {
			return reports, err
		}

		pageReports, hasMore := c.parseResearchHTML(html, ticker)
		reports = append(reports, pageReports...)

		if !hasMore || len(pageReports) == 0 {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(reports),
	}).Debug("Fetched research reports")
	return reports, nil
}

// parseResearchHTML parses one research board page.
// 컬럼: 종목명 | 제목 | 증권사 | 첨부 | 작성일 | 조회수
func (c *Client) parseResearchHTML(html, ticker string) ([]*contracts.ResearchReport, bool) {
	var reports []*contracts.ResearchReport

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return reports, false
	}

	doc.Find("table.type_1 tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		titleCell := cells.Eq(1)
		title := strings.TrimSpace(titleCell.Text())
		if title == "" {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(4).Text())
		if !reportDateRe.MatchString(dateText) {
			return
		}
		reportDate, err := time.Parse("06.01.02", dateText)
		if err != nil {
			return
		}

		report := &contracts.ResearchReport{
			Ticker:     ticker,
			Title:      title,
			Broker:     strings.TrimSpace(cells.Eq(2).Text()),
			ReportDate: reportDate,
		}

		if href, ok := titleCell.Find("a").Attr("href"); ok {
			report.ReportURL = c.baseURL + href
		}

		// 제목에 목표가가 들어오는 경우: "목표주가 95,000원 상향"
		if target := extractTargetPrice(title); target > 0 {
			report.TargetPrice = &target
		}
		report.Opinion = extractOpinion(title)

		reports = append(reports, report)
	})

	hasMore := doc.Find(".pgRR").Length() > 0
	return reports, hasMore
}

var targetPriceRe = regexp.MustCompile(`목표주?가?\s*([\d,]+)\s*원`)

func extractTargetPrice(title string) int64 {
	m := targetPriceRe.FindStringSubmatch(title)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func extractOpinion(title string) string {
	switch {
	case strings.Contains(title, "매수") || strings.Contains(strings.ToUpper(title), "BUY"):
		return "매수"
	case strings.Contains(title, "중립") || strings.Contains(strings.ToUpper(title), "HOLD"):
		return "중립"
	case strings.Contains(title, "매도") || strings.Contains(strings.ToUpper(title), "SELL"):
		return "매도"
	default:
		return ""
	}
}
