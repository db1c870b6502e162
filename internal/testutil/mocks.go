package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/hakimz/duit/duit-backend/internal/domain"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	CreateFn func(auth0ID, email string, name, pictureURL *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
	}
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name, pictureURL)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:         uuid.New(),
		Auth0ID:    auth0ID,
		Email:      email,
		Name:       name,
		PictureURL: pictureURL,
	}
	m.Users[auth0ID] = user
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
}

// MockWorkspaceRepository is a mock implementation of domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	Workspaces    map[int32]*domain.Workspace
	ByUserID      map[uuid.UUID]*domain.Workspace
	ByUserAuth0ID map[string]*domain.Workspace
	NextID        int32
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		Workspaces:    make(map[int32]*domain.Workspace),
		ByUserID:      make(map[uuid.UUID]*domain.Workspace),
		ByUserAuth0ID: make(map[string]*domain.Workspace),
		NextID:        1,
	}
}

// GetByUserID retrieves a workspace by user ID
func (m *MockWorkspaceRepository) GetByUserID(userID uuid.UUID) (*domain.Workspace, error) {
	if ws, ok := m.ByUserID[userID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// GetByUserAuth0ID retrieves a workspace by the owner's Auth0 ID
func (m *MockWorkspaceRepository) GetByUserAuth0ID(auth0ID string) (*domain.Workspace, error) {
	if ws, ok := m.ByUserAuth0ID[auth0ID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// Create creates a new workspace
func (m *MockWorkspaceRepository) Create(workspace *domain.Workspace) (*domain.Workspace, error) {
	workspace.ID = m.NextID
	m.NextID++
	m.Workspaces[workspace.ID] = workspace
	m.ByUserID[workspace.UserID] = workspace
	return workspace, nil
}

// AddWorkspace adds a workspace to the mock repository (helper for tests)
func (m *MockWorkspaceRepository) AddWorkspace(auth0ID string, workspace *domain.Workspace) {
	m.Workspaces[workspace.ID] = workspace
	m.ByUserID[workspace.UserID] = workspace
	m.ByUserAuth0ID[auth0ID] = workspace
	if workspace.ID >= m.NextID {
		m.NextID = workspace.ID + 1
	}
}

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans      map[int32]*domain.Loan
	NextID     int32
	NextLineID int32
	CreateFn   func(loan *domain.Loan) (*domain.Loan, error)
	UpdateFn   func(loan *domain.Loan) (*domain.Loan, error)
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans:      make(map[int32]*domain.Loan),
		NextID:     1,
		NextLineID: 1,
	}
}

// Create creates a new loan with its schedule lines
func (m *MockLoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	if m.CreateFn != nil {
		return m.CreateFn(loan)
	}
	loan.ID = m.NextID
	m.NextID++
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = time.Now()
	for _, line := range loan.Schedule {
		line.ID = m.NextLineID
		m.NextLineID++
		line.LoanID = loan.ID
	}
	m.Loans[loan.ID] = loan
	return loan, nil
}

// GetByID retrieves a loan by ID within a workspace
func (m *MockLoanRepository) GetByID(workspaceID int32, id int32) (*domain.Loan, error) {
	loan, ok := m.Loans[id]
	if !ok || loan.WorkspaceID != workspaceID || loan.DeletedAt != nil {
		return nil, domain.ErrLoanNotFound
	}
	return loan, nil
}

// ListByWorkspace retrieves all loans in a workspace matching the filter
func (m *MockLoanRepository) ListByWorkspace(workspaceID int32, filter domain.LoanFilter) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	for _, loan := range m.Loans {
		if loan.WorkspaceID != workspaceID || loan.DeletedAt != nil {
			continue
		}
		switch filter {
		case domain.LoanFilterActive:
			if loan.Status != domain.LoanStatusActive {
				continue
			}
		case domain.LoanFilterCompleted:
			if loan.Status != domain.LoanStatusCompleted {
				continue
			}
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

// Update updates an existing loan's fields, leaving its schedule alone
func (m *MockLoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(loan)
	}
	existing, ok := m.Loans[loan.ID]
	if !ok || existing.WorkspaceID != loan.WorkspaceID || existing.DeletedAt != nil {
		return nil, domain.ErrLoanNotFound
	}
	loan.Schedule = existing.Schedule
	loan.UpdatedAt = time.Now()
	m.Loans[loan.ID] = loan
	return loan, nil
}

// ReplaceSchedule swaps a loan's schedule lines and derived status
func (m *MockLoanRepository) ReplaceSchedule(workspaceID int32, loanID int32, lines []*domain.InstallmentLine, status domain.LoanStatus) (*domain.Loan, error) {
	loan, err := m.GetByID(workspaceID, loanID)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if line.ID == 0 {
			line.ID = m.NextLineID
			m.NextLineID++
		}
		line.LoanID = loanID
	}
	loan.Schedule = lines
	loan.Status = status
	loan.UpdatedAt = time.Now()
	return loan, nil
}

// SetLinePaid flips one line's paid flag and stores the derived status
func (m *MockLoanRepository) SetLinePaid(workspaceID int32, loanID int32, lineID int32, paid bool, paidDate *time.Time, status domain.LoanStatus) (*domain.InstallmentLine, error) {
	loan, err := m.GetByID(workspaceID, loanID)
	if err != nil {
		return nil, err
	}
	for _, line := range loan.Schedule {
		if line.ID == lineID {
			line.Paid = paid
			line.PaidDate = paidDate
			line.UpdatedAt = time.Now()
			loan.Status = status
			return line, nil
		}
	}
	return nil, domain.ErrLoanLineNotFound
}

// SoftDelete marks a loan as deleted
func (m *MockLoanRepository) SoftDelete(workspaceID int32, id int32) error {
	loan, err := m.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	loan.DeletedAt = &now
	return nil
}

// AddLoan adds a loan to the mock repository (helper for tests)
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) {
	m.Loans[loan.ID] = loan
	if loan.ID >= m.NextID {
		m.NextID = loan.ID + 1
	}
	for _, line := range loan.Schedule {
		if line.ID >= m.NextLineID {
			m.NextLineID = line.ID + 1
		}
	}
}

// MockBillRepository is a mock implementation of domain.BillRepository
type MockBillRepository struct {
	Bills    map[int32]*domain.Bill
	NextID   int32
	CreateFn func(bill *domain.Bill) (*domain.Bill, error)
}

// NewMockBillRepository creates a new MockBillRepository
func NewMockBillRepository() *MockBillRepository {
	return &MockBillRepository{
		Bills:  make(map[int32]*domain.Bill),
		NextID: 1,
	}
}

// Create creates a new bill
func (m *MockBillRepository) Create(bill *domain.Bill) (*domain.Bill, error) {
	if m.CreateFn != nil {
		return m.CreateFn(bill)
	}
	bill.ID = m.NextID
	m.NextID++
	bill.CreatedAt = time.Now()
	bill.UpdatedAt = time.Now()
	m.Bills[bill.ID] = bill
	return bill, nil
}

// GetByID retrieves a bill by ID within a workspace
func (m *MockBillRepository) GetByID(workspaceID int32, id int32) (*domain.Bill, error) {
	bill, ok := m.Bills[id]
	if !ok || bill.WorkspaceID != workspaceID || bill.DeletedAt != nil {
		return nil, domain.ErrBillNotFound
	}
	return bill, nil
}

// ListByWorkspace retrieves all bills in a workspace
func (m *MockBillRepository) ListByWorkspace(workspaceID int32) ([]*domain.Bill, error) {
	var bills []*domain.Bill
	for _, bill := range m.Bills {
		if bill.WorkspaceID == workspaceID && bill.DeletedAt == nil {
			bills = append(bills, bill)
		}
	}
	return bills, nil
}

// Update updates an existing bill
func (m *MockBillRepository) Update(bill *domain.Bill) (*domain.Bill, error) {
	existing, ok := m.Bills[bill.ID]
	if !ok || existing.WorkspaceID != bill.WorkspaceID || existing.DeletedAt != nil {
		return nil, domain.ErrBillNotFound
	}
	bill.PaidDates = existing.PaidDates
	bill.UpdatedAt = time.Now()
	m.Bills[bill.ID] = bill
	return bill, nil
}

// SetDatePaid adds or removes one due date from the bill's paid set
func (m *MockBillRepository) SetDatePaid(workspaceID int32, id int32, date time.Time, paid bool) (*domain.Bill, error) {
	bill, err := m.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	if paid {
		if !bill.IsDatePaid(date) {
			bill.PaidDates = append(bill.PaidDates, date)
		}
	} else {
		kept := bill.PaidDates[:0]
		for _, d := range bill.PaidDates {
			if !domain.SameDay(d, date) {
				kept = append(kept, d)
			}
		}
		bill.PaidDates = kept
	}
	bill.UpdatedAt = time.Now()
	return bill, nil
}

// SoftDelete marks a bill as deleted
func (m *MockBillRepository) SoftDelete(workspaceID int32, id int32) error {
	bill, err := m.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	bill.DeletedAt = &now
	return nil
}

// AddBill adds a bill to the mock repository (helper for tests)
func (m *MockBillRepository) AddBill(bill *domain.Bill) {
	m.Bills[bill.ID] = bill
	if bill.ID >= m.NextID {
		m.NextID = bill.ID + 1
	}
}
