// Package jwt предоставляет функции для работы с сервисными JWT токенами
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken токен не прошел проверку
var ErrInvalidToken = errors.New("недействительный токен")

// Claims данные сервисного токена
type Claims struct {
	Client               string `json:"client"` // Имя клиента API (бот, дашборд)
	Role                 string `json:"role"`   // Роль клиента (bot, dashboard, admin)
	jwt.RegisteredClaims        // Встроенные стандартные поля JWT
}

// Manager отвечает за создание и проверку JWT токенов
type Manager struct {
	secretKey     []byte           // Секретный ключ для подписи токенов
	tokenLifetime time.Duration    // Время жизни токена
	issuer        string           // Издатель, проверяется при разборе
	now           func() time.Time // Источник текущего времени
}

// NewManager создает новый менеджер JWT
// secretKey - секретный ключ для подписи токенов
// issuer - издатель токенов
// lifetime - время жизни токена
func NewManager(secretKey, issuer string, lifetime time.Duration) *Manager {
	return &Manager{
		secretKey:     []byte(secretKey),
		tokenLifetime: lifetime,
		issuer:        issuer,
		now:           time.Now,
	}
}

// GenerateToken создает токен для клиента client с ролью role
func (m *Manager) GenerateToken(client, role string) (string, error) {
	// Без секрета токен подписать нельзя
	if len(m.secretKey) == 0 {
		return "", errors.New("не задан секретный ключ jwt.secret")
	}

	// Создаем claims (данные, которые будут в токене)
	now := m.now()
	claims := &Claims{
		Client: client,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   client,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			// Уникальный идентификатор токена
			ID: uuid.New().String(),
		},
	}

	// Подписываем токен методом HS256
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return tokenString, nil
}

// ParseToken проверяет подпись, срок и издателя токена
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Проверяем метод подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неподдерживаемый метод подписи: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// Проверяем, что токен валиден
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
