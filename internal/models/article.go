// models содержит доменные сущности сервиса market-insights.
// Типы сериализуются в JSON как есть и отдаются виджетам без преобразований.
package models

import "time"

// Article — одна нормализованная запись ленты.
//
// Особенности:
//   - ID уникален только в пределах одного FeedResult;
//   - Content/Description — plain text без HTML;
//   - PublishedAt — в UTC; при отсутствии/битой дате источника равен моменту сборки.
type Article struct {
	// ID — guid/id записи или позиционный article-<index>.
	ID string `json:"id"`
	// Title — заголовок, всегда непустой.
	Title string `json:"title"`
	// Description — очищенный тизер.
	Description string `json:"description"`
	// Content — очищенный текст из самого полного поля.
	Content string `json:"content"`
	// Link — ссылка на оригинал, "" если источник её не дал.
	Link string `json:"link"`
	// PublishedAt — время публикации.
	PublishedAt time.Time `json:"publishedAt"`
	// Author — автор или DefaultAuthor.
	Author string `json:"author"`
	// Category — первая категория или DefaultCategory.
	Category string `json:"category"`
	// ImageURL — первая <img src> из сырого контента.
	ImageURL string `json:"imageUrl,omitempty"`
	// ReadTime — минуты чтения при 200 словах в минуту.
	ReadTime int `json:"readTime"`
	// Excerpt — усечённое превью Content.
	Excerpt string `json:"excerpt"`
}

// FeedResult — снимок ленты, собранный одним вызовом FetchFeed.
type FeedResult struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Articles    []Article `json:"articles"`
	// LastUpdated — момент сборки результата, а не публикации у источника.
	LastUpdated time.Time `json:"lastUpdated"`
}
