package usecase_user

import (
	"context"
	"testing"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/vibevortex/core/internal/model"
	repo_mocks "github.com/vibevortex/core/internal/usecase/user/mocks/repository"
	settings_mocks "github.com/vibevortex/core/internal/usecase/user/mocks/settings"
)

type UsecaseUserUnitSuite struct {
	suite.Suite
}

type resources struct {
	usecase  *Usecase
	userRepo *repo_mocks.UserRepository
	settings *settings_mocks.SettingsRepository
	ctx      context.Context
}

func initResources(t provider.T) *resources {
	userRepo := repo_mocks.NewUserRepository(t)
	settings := settings_mocks.NewSettingsRepository(t)
	usecase := New(userRepo, settings, nil)

	return &resources{
		userRepo: userRepo,
		settings: settings,
		usecase:  usecase,
		ctx:      context.Background(),
	}
}

func (suite *UsecaseUserUnitSuite) TestRegister(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		setupMocks    func(r *resources)
		expectError   bool
		expectedError error
	}{
		{
			name: "Should register new account",
			setupMocks: func(r *resources) {
				r.userRepo.On("UsernameExists", r.ctx, "alice").Return(false, nil).Once()
				r.userRepo.On("EmailExists", r.ctx, "alice@example.com").Return(false, nil).Once()
				r.userRepo.On("Create", r.ctx, mock.MatchedBy(func(u model.User) bool {
					return u.Username == "alice" &&
						u.Email == "alice@example.com" &&
						bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
				})).Return(int64(1), nil).Once()
			},
			expectError: false,
		},
		{
			name: "Should reject taken username",
			setupMocks: func(r *resources) {
				r.userRepo.On("UsernameExists", r.ctx, "alice").Return(true, nil).Once()
			},
			expectError:   true,
			expectedError: ErrUsernameTaken,
		},
		{
			name: "Should reject taken email",
			setupMocks: func(r *resources) {
				r.userRepo.On("UsernameExists", r.ctx, "alice").Return(false, nil).Once()
				r.userRepo.On("EmailExists", r.ctx, "alice@example.com").Return(true, nil).Once()
			},
			expectError:   true,
			expectedError: ErrEmailTaken,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.setupMocks(r)

			err := r.usecase.Register(r.ctx, "alice", "alice@example.com", "password123", nil, "")

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.userRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseUserUnitSuite) TestLogin(t provider.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcryptCost)
	assert.NoError(t, err)

	stored := model.User{
		ID:           1,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
	}

	testCases := []struct {
		name          string
		password      string
		setupMocks    func(r *resources)
		expectError   bool
		expectedError error
	}{
		{
			name:     "Should log in with correct credentials",
			password: "password123",
			setupMocks: func(r *resources) {
				r.userRepo.On("ByEmail", r.ctx, "alice@example.com").Return(stored, nil).Once()
				r.userRepo.On("UpdateLastLoginIP", r.ctx, int64(1), "10.0.0.1").Return(nil).Once()
			},
			expectError: false,
		},
		{
			name:     "Should reject wrong password",
			password: "letmein",
			setupMocks: func(r *resources) {
				r.userRepo.On("ByEmail", r.ctx, "alice@example.com").Return(stored, nil).Once()
			},
			expectError:   true,
			expectedError: ErrWrongCredentials,
		},
		{
			name:     "Should reject unknown email",
			password: "password123",
			setupMocks: func(r *resources) {
				r.userRepo.On("ByEmail", r.ctx, "alice@example.com").
					Return(model.User{}, ErrResourceNotFound).Once()
			},
			expectError:   true,
			expectedError: ErrWrongCredentials,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.setupMocks(r)

			user, err := r.usecase.Login(r.ctx, "alice@example.com", tc.password, "10.0.0.1")

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, stored.ID, user.ID)
			}
			r.userRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseUserUnitSuite) TestSetAdmin(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		actorID       int64
		targetID      int64
		admin         bool
		setupMocks    func(r *resources)
		expectError   bool
		expectedError error
	}{
		{
			name:     "Should promote user",
			actorID:  1,
			targetID: 2,
			admin:    true,
			setupMocks: func(r *resources) {
				r.userRepo.On("ByID", r.ctx, int64(2)).
					Return(model.User{ID: 2}, nil).Once()
				r.userRepo.On("SetAdmin", r.ctx, int64(2), true).Return(nil).Once()
			},
			expectError: false,
		},
		{
			name:          "Should reject self demotion",
			actorID:       1,
			targetID:      1,
			admin:         false,
			setupMocks:    func(r *resources) {},
			expectError:   true,
			expectedError: ErrSelfDemotion,
		},
		{
			name:     "Should protect the last admin",
			actorID:  1,
			targetID: 2,
			admin:    false,
			setupMocks: func(r *resources) {
				r.userRepo.On("ByID", r.ctx, int64(2)).
					Return(model.User{ID: 2, Admin: true}, nil).Once()
				r.userRepo.On("CountAdmins", r.ctx).Return(1, nil).Once()
			},
			expectError:   true,
			expectedError: ErrLastAdmin,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.setupMocks(r)

			err := r.usecase.SetAdmin(r.ctx, tc.actorID, tc.targetID, tc.admin)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.userRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseUserUnitSuite) TestResetPassword(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		password      string
		setupMocks    func(r *resources)
		expectError   bool
		expectedError error
	}{
		{
			name:     "Should store new hash",
			password: "longenough",
			setupMocks: func(r *resources) {
				r.userRepo.On("ByID", r.ctx, int64(2)).
					Return(model.User{ID: 2}, nil).Once()
				r.userRepo.On("UpdatePassword", r.ctx, int64(2), mock.AnythingOfType("string")).
					Return(nil).Once()
			},
			expectError: false,
		},
		{
			name:          "Should reject short password",
			password:      "short",
			setupMocks:    func(r *resources) {},
			expectError:   true,
			expectedError: ErrWeakPassword,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.setupMocks(r)

			err := r.usecase.ResetPassword(r.ctx, 2, tc.password)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.userRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseUserUnitSuite) TestDeleteUser(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		actorID       int64
		targetID      int64
		setupMocks    func(r *resources)
		expectError   bool
		expectedError error
	}{
		{
			name:     "Should delete regular user",
			actorID:  1,
			targetID: 2,
			setupMocks: func(r *resources) {
				r.userRepo.On("ByID", r.ctx, int64(2)).
					Return(model.User{ID: 2}, nil).Once()
				r.userRepo.On("Delete", r.ctx, int64(2)).Return(nil).Once()
			},
			expectError: false,
		},
		{
			name:          "Should reject self deletion",
			actorID:       1,
			targetID:      1,
			setupMocks:    func(r *resources) {},
			expectError:   true,
			expectedError: ErrSelfDeletion,
		},
		{
			name:     "Should protect the last admin",
			actorID:  1,
			targetID: 2,
			setupMocks: func(r *resources) {
				r.userRepo.On("ByID", r.ctx, int64(2)).
					Return(model.User{ID: 2, Admin: true}, nil).Once()
				r.userRepo.On("CountAdmins", r.ctx).Return(1, nil).Once()
			},
			expectError:   true,
			expectedError: ErrLastAdmin,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.setupMocks(r)

			err := r.usecase.DeleteUser(r.ctx, tc.actorID, tc.targetID)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.userRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseUserUnitSuite) TestLobbyLines(t provider.T) {
	t.Parallel()

	t.Run("Should treat a missing setting as empty", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		r.settings.On("Get", r.ctx, lobbyLinesKey, mock.Anything).
			Return(ErrResourceNotFound).Once()

		lines, err := r.usecase.LobbyLines(r.ctx)

		assert.NoError(t, err)
		assert.Empty(t, lines)
		r.settings.AssertExpectations(t)
	})

	t.Run("Should fail on a room with no lines configured", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		r.settings.On("Get", r.ctx, lobbyLinesKey, mock.Anything).
			Return(ErrResourceNotFound).Once()

		_, err := r.usecase.RandomLobbyLine(r.ctx)

		assert.ErrorIs(t, err, ErrNoLobbyLines)
		r.settings.AssertExpectations(t)
	})

	t.Run("Should pick one of the stored lines", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		r.settings.On("Get", r.ctx, lobbyLinesKey, mock.Anything).
			Run(func(args mock.Arguments) {
				out := args.Get(2).(*[]string)
				*out = []string{"warming up the decks", "tuning the vibe"}
			}).
			Return(nil).Once()

		line, err := r.usecase.RandomLobbyLine(r.ctx)

		assert.NoError(t, err)
		assert.Contains(t, []string{"warming up the decks", "tuning the vibe"}, line)
		r.settings.AssertExpectations(t)
	})

	t.Run("Should cap the number of lines", func(t provider.T) {
		t.Parallel()
		r := initResources(t)

		tooMany := make([]string, maxLobbyLines+1)
		err := r.usecase.SetLobbyLines(r.ctx, tooMany)

		assert.ErrorIs(t, err, ErrTooManyLobbyLines)
	})
}

func TestUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(UsecaseUserUnitSuite))
}
