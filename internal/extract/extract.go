// extract разбирает разметку страницы выдачи в упорядоченный список models.Story.
//
// Пакет чистый: без сети, без часов, без глобального состояния. Для одинакового
// входа результат одинаков, поэтому его удобно тестировать на фикстурах.
package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pribylovaa/hn-digest/internal/models"
)

// DefaultLimit — сколько записей со страницы берём по умолчанию.
const DefaultLimit = 30

// Селекторы разметки страницы выдачи.
const (
	selEntry    = "tr.athing"
	selRank     = "span.rank"
	selTitle    = "span.titleline > a"
	selSiteStr  = "span.sitestr"
	selSiteBit  = "span.sitebit"
	selSubtext  = "td.subtext"
	selScore    = "span.score"
	selAuthor   = "a.hnuser"
	commentWord = "comment"
)

// Stories извлекает не более limit записей в порядке документа.
//
// Особенности:
//   - limit <= 0 -> DefaultLimit; ограничение применяется к строкам выдачи,
//     отброшенные строки тоже расходуют лимит;
//   - запись без заголовка или ссылки отбрасывается, остальная страница разбирается;
//   - Rank берётся только из явной метки, иначе — неизвестен;
//   - отсутствие очков/комментариев даёт models.None, а не ноль.
//
// Ошибка возвращается только если документ не удалось разобрать целиком.
func Stories(raw []byte, limit int) ([]models.Story, error) {
	const op = "extract.Stories"

	if limit <= 0 {
		limit = DefaultLimit
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stories := make([]models.Story, 0, limit)
	doc.Find(selEntry).EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= limit {
			return false
		}

		if story, ok := entry(row); ok {
			stories = append(stories, story)
		}

		return true
	})

	return stories, nil
}

// entry разбирает одну строку выдачи вместе со строкой подписи под ней.
func entry(row *goquery.Selection) (models.Story, bool) {
	link := row.Find(selTitle).First()

	title := strings.TrimSpace(link.Text())
	href, ok := link.Attr("href")
	href = strings.TrimSpace(href)

	if title == "" || !ok || href == "" {
		return models.Story{}, false
	}

	story := models.Story{
		Rank:     rank(row.Find(selRank).First()),
		Title:    title,
		URL:      href,
		Score:    models.None,
		Comments: models.None,
		Site:     site(row),
	}

	subtext := row.Next().Find(selSubtext).First()
	if subtext.Length() == 0 {
		return story, true
	}

	if score := subtext.Find(selScore).First(); score.Length() > 0 {
		story.Score = leadingCount(score.Text())
	}

	comments := subtext.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(a.Text()), commentWord)
	}).First()
	if comments.Length() > 0 {
		story.Comments = leadingCount(comments.Text())
	}

	story.Author = strings.TrimSpace(subtext.Find(selAuthor).First().Text())

	return story, true
}

// rank читает метку вида "12." Пустая или нечисловая метка -> неизвестен.
func rank(sel *goquery.Selection) models.Count {
	if sel.Length() == 0 {
		return models.None
	}

	txt := strings.TrimSuffix(strings.TrimSpace(sel.Text()), ".")
	n, err := strconv.Atoi(txt)
	if err != nil || n <= 0 {
		return models.None
	}

	return models.Some(n)
}

// site возвращает домен источника: span.sitestr, иначе span.sitebit без скобок.
func site(row *goquery.Selection) string {
	if s := strings.TrimSpace(row.Find(selSiteStr).First().Text()); s != "" {
		return s
	}

	return strings.Trim(strings.TrimSpace(row.Find(selSiteBit).First().Text()), "() ")
}

// leadingCount разбивает текст по пробелам (включая &nbsp;) и читает первое число.
func leadingCount(text string) models.Count {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return models.None
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return models.None
	}

	return models.Some(n)
}
