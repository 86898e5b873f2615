// Package auth проверяет сервисные токены клиентов gRPC API
package auth

import (
	"context"
	"slices"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Ultrahd-dev/timetable-engine/internal/jwt"
)

// Роли клиентов
const (
	RoleBot       = "bot"
	RoleDashboard = "dashboard"
	RoleAdmin     = "admin"
)

// Roles все известные роли
var Roles = []string{RoleBot, RoleDashboard, RoleAdmin}

// ValidRole true для известной роли
func ValidRole(role string) bool {
	return slices.Contains(Roles, role)
}

type contextKey string

// ClientContextKey ключ информации о клиенте в контексте запроса
const ClientContextKey contextKey = "client"

// ClientInfo клиент, извлеченный из токена
type ClientInfo struct {
	Name string
	Role string
}

// ClientFromContext извлекает информацию о клиенте из контекста запроса
func ClientFromContext(ctx context.Context) (*ClientInfo, bool) {
	client, ok := ctx.Value(ClientContextKey).(*ClientInfo)
	return client, ok
}

// Middleware проверяет токен и роль клиента для каждого вызова
type Middleware struct {
	jwtManager  *jwt.Manager
	methodRoles map[string][]string
}

// NewMiddleware создает middleware. methodRoles - допустимые роли по полному
// имени метода; метод без записи доступен любому клиенту с валидным токеном.
func NewMiddleware(jwtManager *jwt.Manager, methodRoles map[string][]string) *Middleware {
	return &Middleware{
		jwtManager:  jwtManager,
		methodRoles: methodRoles,
	}
}

// UnaryInterceptor grpc.UnaryServerInterceptor с проверкой токена
func (m *Middleware) UnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx, err := m.Authenticate(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

// Authenticate проверяет токен из метаданных authorization и роль клиента
// для метода method, возвращает контекст с ClientInfo
func (m *Middleware) Authenticate(ctx context.Context, method string) (context.Context, error) {
	token, err := bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	claims, err := m.jwtManager.ParseToken(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	if roles, ok := m.methodRoles[method]; ok && !slices.Contains(roles, claims.Role) {
		return nil, status.Errorf(codes.PermissionDenied, "role %q may not call %s", claims.Role, method)
	}

	return context.WithValue(ctx, ClientContextKey, &ClientInfo{
		Name: claims.Client,
		Role: claims.Role,
	}), nil
}

func bearerToken(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return "", status.Error(codes.Unauthenticated, "missing authorization header")
	}
	if !strings.HasPrefix(values[0], "Bearer ") {
		return "", status.Error(codes.Unauthenticated, "authorization must start with 'Bearer '")
	}
	return strings.TrimPrefix(values[0], "Bearer "), nil
}
