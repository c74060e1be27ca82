package jwttoken

import "carbonledger/internal/platform/middleware"

// MiddlewareAdapter adapts JWTService to the middleware.JWTValidator
// interface, keeping the middleware package free of jwt imports.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{Address: claims.Address}, nil
}
