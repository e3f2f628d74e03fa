package resettoken

import (
	"pwreset/internal/platform/middleware"
)

// MiddlewareAdapter exposes the Service as a middleware.ResetTokenValidator.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.ResetClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.ResetClaims{
		Subject: claims.Subject,
		TokenID: claims.ID,
	}, nil
}
