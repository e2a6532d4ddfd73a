// Package storetest provides an in-memory record store for tests.
package storetest

import (
	"context"
	"sync"

	"github.com/mamadbah2/checksheet/internal/apperrors"
	"github.com/mamadbah2/checksheet/internal/domain/models"
	"github.com/mamadbah2/checksheet/pkg/clients/checksheets"
)

var _ checksheets.Client = (*Store)(nil)

// Store is an in-memory stand-in for the remote record store.
type Store struct {
	mu sync.Mutex

	Users      []models.User
	Containers map[string][]models.Container // by purchase order
	Items      map[string][]models.Item      // by tracking number
	Properties []models.Property
	Checks     []models.ItemPropertyCheck
	Finalized  map[string]bool
	Manifests  map[string]models.SizeManifest
	Shoes      map[string]models.Shoe

	// FailWrites makes create/update fail for the listed item codes.
	FailWrites map[string]error
	// FailLists makes ListChecks fail for the listed item codes.
	FailLists map[string]error
	// Unavailable fails every call when set.
	Unavailable error

	nextID        int
	Calls         map[string]int
	FinalizeCalls int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		Containers: map[string][]models.Container{},
		Items:      map[string][]models.Item{},
		Finalized:  map[string]bool{},
		Manifests:  map[string]models.SizeManifest{},
		Shoes:      map[string]models.Shoe{},
		FailWrites: map[string]error{},
		FailLists:  map[string]error{},
		Calls:      map[string]int{},
	}
}

func (s *Store) enter(op string) error {
	s.Calls[op]++
	return s.Unavailable
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListUsers"); err != nil {
		return nil, err
	}
	return append([]models.User(nil), s.Users...), nil
}

func (s *Store) GetUser(ctx context.Context, id int) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetUser"); err != nil {
		return models.User{}, err
	}
	for _, u := range s.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, apperrors.Newf(apperrors.KindNotFound, "user %d", id)
}

func (s *Store) ListContainersByPO(ctx context.Context, po string) ([]models.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListContainersByPO"); err != nil {
		return nil, err
	}
	return append([]models.Container(nil), s.Containers[po]...), nil
}

func (s *Store) ListItemsByContainer(ctx context.Context, trackingNumber string) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListItemsByContainer"); err != nil {
		return nil, err
	}
	return append([]models.Item(nil), s.Items[trackingNumber]...), nil
}

func (s *Store) ListProperties(ctx context.Context) ([]models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListProperties"); err != nil {
		return nil, err
	}
	return append([]models.Property(nil), s.Properties...), nil
}

func (s *Store) ListChecks(ctx context.Context, scope models.Scope) ([]models.ItemPropertyCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListChecks"); err != nil {
		return nil, err
	}
	if err := s.FailLists[scope.ItemCode]; err != nil {
		return nil, err
	}
	var out []models.ItemPropertyCheck
	for _, c := range s.Checks {
		if c.Scope() == scope {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) CreateCheck(ctx context.Context, check models.ItemPropertyCheck) (models.ItemPropertyCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateCheck"); err != nil {
		return models.ItemPropertyCheck{}, err
	}
	if err := s.FailWrites[check.ItemCode]; err != nil {
		return models.ItemPropertyCheck{}, err
	}
	s.nextID++
	check.ID = s.nextID
	s.Checks = append(s.Checks, check)
	return check, nil
}

func (s *Store) UpdateCheck(ctx context.Context, check models.ItemPropertyCheck) (models.ItemPropertyCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateCheck"); err != nil {
		return models.ItemPropertyCheck{}, err
	}
	if err := s.FailWrites[check.ItemCode]; err != nil {
		return models.ItemPropertyCheck{}, err
	}
	for i := range s.Checks {
		if s.Checks[i].ID == check.ID {
			s.Checks[i] = check
			return check, nil
		}
	}
	return models.ItemPropertyCheck{}, apperrors.Newf(apperrors.KindNotFound, "check %d", check.ID)
}

func (s *Store) GetContainerFinalized(ctx context.Context, containerCode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetContainerFinalized"); err != nil {
		return false, err
	}
	return s.Finalized[containerCode], nil
}

func (s *Store) FinalizeContainer(ctx context.Context, containerCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FinalizeContainer"); err != nil {
		return err
	}
	s.FinalizeCalls++
	s.Finalized[containerCode] = true
	return nil
}

func (s *Store) GetSizeManifest(ctx context.Context, sizeRun string) (models.SizeManifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetSizeManifest"); err != nil {
		return models.SizeManifest{}, err
	}
	m, ok := s.Manifests[sizeRun]
	if !ok {
		return models.SizeManifest{}, apperrors.Newf(apperrors.KindNotFound, "size run %s", sizeRun)
	}
	m.SizeRun = sizeRun
	return m, nil
}

func (s *Store) GetShoeByUPC(ctx context.Context, upc string) (models.Shoe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetShoeByUPC"); err != nil {
		return models.Shoe{}, err
	}
	shoe, ok := s.Shoes[upc]
	if !ok {
		return models.Shoe{}, apperrors.Newf(apperrors.KindNotFound, "upc %s", upc)
	}
	return shoe, nil
}

// ChecksFor returns stored checks for an item code and property.
func (s *Store) ChecksFor(itemCode string, propertyID int) []models.ItemPropertyCheck {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ItemPropertyCheck
	for _, c := range s.Checks {
		if c.ItemCode == itemCode && c.PropertyID == propertyID {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns how many times op was invoked.
func (s *Store) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[op]
}
