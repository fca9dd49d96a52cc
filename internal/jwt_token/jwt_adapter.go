package jwttoken

import (
	"time"

	id "sportclub/pkg/domain"
	dErrors "sportclub/pkg/domain-errors"
	"sportclub/pkg/requestcontext"
)

// ToSession converts validated claims into the session the middleware injects.
func ToSession(claims *Claims) (requestcontext.SessionInfo, error) {
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return requestcontext.SessionInfo{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token subject")
	}
	roles, err := id.ParseRoles(claims.Roles)
	if err != nil {
		return requestcontext.SessionInfo{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token roles")
	}
	var birth time.Time
	if claims.BirthDate != "" {
		birth, err = time.Parse(birthDateLayout, claims.BirthDate)
		if err != nil {
			return requestcontext.SessionInfo{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token birth date")
		}
	}
	return requestcontext.SessionInfo{UserID: userID, Roles: roles, BirthDate: birth}, nil
}

// ValidateSession implements the auth middleware's SessionValidator.
func (s *JWTService) ValidateSession(token string) (requestcontext.SessionInfo, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return requestcontext.SessionInfo{}, err
	}
	return ToSession(claims)
}
