package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrUpstreamStatus сайт ответил статусом вне 2xx
var ErrUpstreamStatus = errors.New("сайт расписания вернул неожиданный код ответа")

// maxPageSize ограничение на размер загружаемой страницы
const maxPageSize = 10 << 20

// NewHTTPClient создает HTTP клиент для сайта расписания
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// get выполняет GET и проверяет статус. Тело закрывает вызывающий.
func (s *Service) get(ctx context.Context, url string) (*http.Response, error) {
	// Создаем запрос с контекстом и User-Agent
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	// Выполняем запрос
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса %s: %w", url, err)
	}
	// Проверяем статус ответа
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d для %s", ErrUpstreamStatus, resp.StatusCode, url)
	}
	return resp, nil
}

// fetchDocument загружает страницу и разбирает ее в goquery документ
func (s *Service) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора HTML %s: %w", url, err)
	}
	return doc, nil
}

// fetchText загружает ответ как текст (CSS, страница фотографий)
func (s *Service) fetchText(ctx context.Context, url string) (string, error) {
	resp, err := s.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("ошибка чтения ответа %s: %w", url, err)
	}
	return string(body), nil
}
