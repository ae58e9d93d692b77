package services

import (
	"relocate/internal/storage"
	"relocate/internal/user"
)

// CompositeService bundles the services a transport needs.
type CompositeService struct {
	RelocateService RelocateService
	UserService     user.UserService
	Store           storage.Store
}

func NewCompositeService(relocateService RelocateService, userService user.UserService, store storage.Store) *CompositeService {
	return &CompositeService{
		RelocateService: relocateService,
		UserService:     userService,
		Store:           store,
	}
}
