package handler

import (
	"context"
	"net/http"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/payments"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/properties"
)

func withActor(r *http.Request, userID string, role api.Role) *http.Request {
	return r.WithContext(auth.WithPrincipal(r.Context(), auth.Principal{
		UserID: userID,
		Email:  userID + "@example.com",
		Role:   role,
	}))
}

// mockAccountsService is a mock implementation of accounts.ServiceInterface
type mockAccountsService struct {
	signUpFunc func(ctx context.Context, req *api.SignUpRequest) (*api.AuthResponse, error)
	loginFunc  func(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error)
}

func (m *mockAccountsService) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.AuthResponse, error) {
	if m.signUpFunc != nil {
		return m.signUpFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockAccountsService) Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockAccountsService) EnsureAdmin(ctx context.Context, email, password, fullName string) (*api.Profile, error) {
	return nil, nil
}

// mockPropertiesService is a mock implementation of properties.ServiceInterface
type mockPropertiesService struct {
	searchFunc    func(ctx context.Context, params api.SearchPropertiesParams) (*api.PropertyList, error)
	getFunc       func(ctx context.Context, propertyID string) (*api.Property, error)
	listOwnFunc   func(ctx context.Context, actor auth.Principal) ([]*api.Listing, error)
	createFunc    func(ctx context.Context, actor auth.Principal, input *api.PropertyInput) (*api.Listing, error)
	updateFunc    func(ctx context.Context, actor auth.Principal, propertyID string, input *api.PropertyInput) (*api.Listing, error)
	deleteFunc    func(ctx context.Context, actor auth.Principal, propertyID string) error
	addImageFunc  func(ctx context.Context, actor auth.Principal, propertyID string, upload *properties.ImageUpload) (*api.PropertyImage, error)
	openImageFunc func(ctx context.Context, propertyID, imageID string) (*properties.Image, error)
}

func (m *mockPropertiesService) Search(ctx context.Context, params api.SearchPropertiesParams) (*api.PropertyList, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, params)
	}
	return &api.PropertyList{Items: []api.Property{}}, nil
}

func (m *mockPropertiesService) Get(ctx context.Context, propertyID string) (*api.Property, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, propertyID)
	}
	return nil, properties.ErrPropertyNotFound
}

func (m *mockPropertiesService) ListOwn(ctx context.Context, actor auth.Principal) ([]*api.Listing, error) {
	if m.listOwnFunc != nil {
		return m.listOwnFunc(ctx, actor)
	}
	return []*api.Listing{}, nil
}

func (m *mockPropertiesService) Create(ctx context.Context, actor auth.Principal, input *api.PropertyInput) (*api.Listing, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, actor, input)
	}
	return nil, nil
}

func (m *mockPropertiesService) Update(ctx context.Context, actor auth.Principal, propertyID string, input *api.PropertyInput) (*api.Listing, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, actor, propertyID, input)
	}
	return nil, nil
}

func (m *mockPropertiesService) Delete(ctx context.Context, actor auth.Principal, propertyID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, actor, propertyID)
	}
	return nil
}

func (m *mockPropertiesService) AddImage(ctx context.Context, actor auth.Principal, propertyID string, upload *properties.ImageUpload) (*api.PropertyImage, error) {
	if m.addImageFunc != nil {
		return m.addImageFunc(ctx, actor, propertyID, upload)
	}
	return nil, nil
}

func (m *mockPropertiesService) OpenImage(ctx context.Context, propertyID, imageID string) (*properties.Image, error) {
	if m.openImageFunc != nil {
		return m.openImageFunc(ctx, propertyID, imageID)
	}
	return nil, properties.ErrImageNotFound
}

// mockDisclosureService is a mock implementation of disclosure.ServiceInterface
type mockDisclosureService struct {
	revealFunc func(ctx context.Context, actor auth.Principal, propertyID string) (*api.PropertyDetails, error)
}

func (m *mockDisclosureService) Reveal(ctx context.Context, actor auth.Principal, propertyID string) (*api.PropertyDetails, error) {
	return m.revealFunc(ctx, actor, propertyID)
}

// mockPaymentsService is a mock implementation of payments.ServiceInterface
type mockPaymentsService struct {
	initiateUnlockFunc     func(ctx context.Context, actor auth.Principal, propertyID, phone string) (*api.Payment, error)
	initiateListingFeeFunc func(ctx context.Context, actor auth.Principal, phone string) (*api.Payment, error)
	handleCallbackFunc     func(ctx context.Context, body []byte) (*payments.CallbackOutcome, error)
	getFunc                func(ctx context.Context, actor auth.Principal, paymentID string) (*api.Payment, error)
}

func (m *mockPaymentsService) InitiateUnlock(ctx context.Context, actor auth.Principal, propertyID, phone string) (*api.Payment, error) {
	return m.initiateUnlockFunc(ctx, actor, propertyID, phone)
}

func (m *mockPaymentsService) InitiateListingFee(ctx context.Context, actor auth.Principal, phone string) (*api.Payment, error) {
	return m.initiateListingFeeFunc(ctx, actor, phone)
}

func (m *mockPaymentsService) HandleCallback(ctx context.Context, body []byte) (*payments.CallbackOutcome, error) {
	return m.handleCallbackFunc(ctx, body)
}

func (m *mockPaymentsService) Get(ctx context.Context, actor auth.Principal, paymentID string) (*api.Payment, error) {
	return m.getFunc(ctx, actor, paymentID)
}

func (m *mockPaymentsService) HasUnlock(ctx context.Context, userID, propertyID string) (bool, error) {
	return false, nil
}

func (m *mockPaymentsService) ExpireStale(ctx context.Context) ([]*api.Payment, error) {
	return nil, nil
}

// mockMessagesService is a mock implementation of messages.ServiceInterface
type mockMessagesService struct {
	createFunc   func(ctx context.Context, req *api.ContactRequest) (*api.ContactMessage, error)
	listFunc     func(ctx context.Context) ([]*api.ContactMessage, error)
	markReadFunc func(ctx context.Context, messageID string) (*api.ContactMessage, error)
	replyFunc    func(ctx context.Context, messageID string, req *api.ReplyRequest) (*api.ContactMessage, error)
}

func (m *mockMessagesService) Create(ctx context.Context, req *api.ContactRequest) (*api.ContactMessage, error) {
	return m.createFunc(ctx, req)
}

func (m *mockMessagesService) List(ctx context.Context) ([]*api.ContactMessage, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*api.ContactMessage{}, nil
}

func (m *mockMessagesService) MarkRead(ctx context.Context, messageID string) (*api.ContactMessage, error) {
	return m.markReadFunc(ctx, messageID)
}

func (m *mockMessagesService) Reply(ctx context.Context, messageID string, req *api.ReplyRequest) (*api.ContactMessage, error) {
	return m.replyFunc(ctx, messageID, req)
}

// mockDashboardService is a mock implementation of dashboard.ServiceInterface
type mockDashboardService struct {
	statsFunc func(ctx context.Context) (*api.DashboardStats, error)
}

func (m *mockDashboardService) Stats(ctx context.Context) (*api.DashboardStats, error) {
	return m.statsFunc(ctx)
}
