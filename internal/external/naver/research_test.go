package naver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/kfin/pkg/logger"
)

const researchPageHTML = `
<html><body>
<table class="type_1">
  <tr><th>종목명</th><th>제목</th><th>증권사</th><th>첨부</th><th>작성일</th><th>조회수</th></tr>
  <tr>
    <td>삼성전자</td>
    <td><a href="/research/company_read.naver?nid=12345">HBM 성장으로 목표주가 95,000원 상향, 매수 유지</a></td>
    <td>한국투자증권</td>
    <td></td>
    <td>25.08.22</td>
    <td>1024</td>
  </tr>
  <tr>
    <td>삼성전자</td>
    <td><a href="/research/company_read.naver?nid=12340">3분기 실적 프리뷰</a></td>
    <td>미래에셋증권</td>
    <td></td>
    <td>25.08.20</td>
    <td>512</td>
  </tr>
  <tr><td colspan="6">광고</td></tr>
</table>
<table class="Nnavi"><tr><td class="pgRR"><a href="?page=5">맨뒤</a></td></tr></table>
</body></html>`

func newTestClient() *Client {
	return &Client{logger: logger.NewNop(), baseURL: "https://finance.naver.com"}
}

func TestParseResearchHTML(t *testing.T) {
	c := newTestClient()

	reports, hasMore := c.parseResearchHTML(researchPageHTML, "005930")

	require.Len(t, reports, 2)
	assert.True(t, hasMore)

	first := reports[0]
	assert.Equal(t, "005930", first.Ticker)
	assert.Equal(t, "한국투자증권", first.Broker)
	assert.Equal(t, "2025-08-22", first.ReportDate.Format("2006-01-02"))
	require.NotNil(t, first.TargetPrice)
	assert.Equal(t, int64(95000), *first.TargetPrice)
	assert.Equal(t, "매수", first.Opinion)
	assert.Contains(t, first.ReportURL, "nid=12345")

	second := reports[1]
	assert.Nil(t, second.TargetPrice)
	assert.Equal(t, "", second.Opinion)
}

func TestParseResearchHTML_Empty(t *testing.T) {
	c := newTestClient()

	reports, hasMore := c.parseResearchHTML("<html><body></body></html>", "005930")

	assert.Empty(t, reports)
	assert.False(t, hasMore)
}

func TestExtractTargetPrice(t *testing.T) {
	assert.Equal(t, int64(95000), extractTargetPrice("목표주가 95,000원 상향"))
	assert.Equal(t, int64(120000), extractTargetPrice("목표가 120,000원 제시"))
	assert.Equal(t, int64(0), extractTargetPrice("실적 프리뷰"))
}
