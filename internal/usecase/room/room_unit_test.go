package usecase_room

import (
	"context"
	"testing"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vibevortex/core/internal/model"
	repo_mocks "github.com/vibevortex/core/internal/usecase/room/mocks/repository"
)

type UsecaseRoomUnitSuite struct {
	suite.Suite
}

type resources struct {
	usecase  *Usecase
	roomRepo *repo_mocks.RoomRepository
	ctx      context.Context
}

func initResources(t provider.T) *resources {
	roomRepo := repo_mocks.NewRoomRepository(t)
	usecase := New(roomRepo, 5)

	return &resources{
		roomRepo: roomRepo,
		usecase:  usecase,
		ctx:      context.Background(),
	}
}

func validRoomCode() string {
	return "1234567"
}

func (suite *UsecaseRoomUnitSuite) TestNewRoom(t provider.T) {
	t.Parallel()

	const hostID = int64(42)

	testCases := []struct {
		name          string
		setupMocks    func(r *resources)
		expectError   bool
		expectedError error
	}{
		{
			name: "Should create room successfully",
			setupMocks: func(r *resources) {
				r.roomRepo.On("ActiveRoomFor", r.ctx, hostID).
					Return(model.CurrentRoom{}, nil).Once()
				r.roomRepo.On("IsActiveCode", r.ctx, mock.AnythingOfType("string")).
					Return(false, nil).Once()
				r.roomRepo.On("Create", r.ctx, mock.AnythingOfType("model.Room")).
					Return(nil).Once()
			},
			expectError: false,
		},
		{
			name: "Should reject host already in an active room",
			setupMocks: func(r *resources) {
				r.roomRepo.On("ActiveRoomFor", r.ctx, hostID).
					Return(model.CurrentRoom{InRoom: true, RoomCode: validRoomCode()}, nil).Once()
			},
			expectError:   true,
			expectedError: ErrAlreadyInRoom,
		},
		{
			name: "Should give up when every drawn code is taken",
			setupMocks: func(r *resources) {
				r.roomRepo.On("ActiveRoomFor", r.ctx, hostID).
					Return(model.CurrentRoom{}, nil).Once()
				r.roomRepo.On("IsActiveCode", r.ctx, mock.AnythingOfType("string")).
					Return(true, nil).Times(5)
			},
			expectError:   true,
			expectedError: ErrRoomsUnavailable,
		},
		{
			name: "Should retry on create conflict and give up eventually",
			setupMocks: func(r *resources) {
				r.roomRepo.On("ActiveRoomFor", r.ctx, hostID).
					Return(model.CurrentRoom{}, nil).Once()
				r.roomRepo.On("IsActiveCode", r.ctx, mock.AnythingOfType("string")).
					Return(false, nil).Times(5)
				r.roomRepo.On("Create", r.ctx, mock.AnythingOfType("model.Room")).
					Return(ErrCodeConflict).Times(5)
			},
			expectError:   true,
			expectedError: ErrRoomsUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.setupMocks(r)

			code, err := r.usecase.NewRoom(r.ctx, hostID)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Empty(t, code)
			} else {
				assert.NoError(t, err)
				assert.Len(t, code, model.RoomCodeLength)
			}
			r.roomRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseRoomUnitSuite) TestNewRoomCodeShape(t provider.T) {
	t.Parallel()

	r := initResources(t)
	for i := 0; i < 100; i++ {
		code := r.usecase.buildRoomCode()
		assert.Len(t, code, model.RoomCodeLength)
		assert.NotEqual(t, byte('0'), code[0])
		for i := 0; i < len(code); i++ {
			assert.GreaterOrEqual(t, code[i], byte('0'))
			assert.LessOrEqual(t, code[i], byte('9'))
		}
	}
}

func (suite *UsecaseRoomUnitSuite) TestJoin(t provider.T) {
	t.Parallel()

	const userID = int64(7)

	testCases := []struct {
		name          string
		setupMocks    func(r *resources, code string)
		expectError   bool
		expectedError error
	}{
		{
			name: "Should append new player to the durable list",
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("ActiveRoomFor", r.ctx, userID).
					Return(model.CurrentRoom{}, nil).Once()
				r.roomRepo.On("IsActiveCode", r.ctx, code).
					Return(true, nil).Once()
				r.roomRepo.On("Players", r.ctx, code).
					Return([]int64{1}, nil).Once()
				r.roomRepo.On("SetPlayers", r.ctx, code, []int64{1, userID}).
					Return(nil).Once()
			},
			expectError: false,
		},
		{
			name: "Should be a no-op when user already in this room",
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("ActiveRoomFor", r.ctx, userID).
					Return(model.CurrentRoom{InRoom: true, RoomCode: code}, nil).Once()
				r.roomRepo.On("IsActiveCode", r.ctx, code).
					Return(true, nil).Once()
				r.roomRepo.On("Players", r.ctx, code).
					Return([]int64{1, userID}, nil).Once()
			},
			expectError: false,
		},
		{
			name: "Should reject joining a second active room",
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("ActiveRoomFor", r.ctx, userID).
					Return(model.CurrentRoom{InRoom: true, RoomCode: "7654321"}, nil).Once()
			},
			expectError:   true,
			expectedError: ErrAlreadyInRoom,
		},
		{
			name: "Should report missing room",
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("ActiveRoomFor", r.ctx, userID).
					Return(model.CurrentRoom{}, nil).Once()
				r.roomRepo.On("IsActiveCode", r.ctx, code).
					Return(false, nil).Once()
			},
			expectError:   true,
			expectedError: ErrResourceNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			code := validRoomCode()
			tc.setupMocks(r, code)

			err := r.usecase.Join(r.ctx, code, userID)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.roomRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseRoomUnitSuite) TestLeave(t provider.T) {
	t.Parallel()

	const userID = int64(7)

	testCases := []struct {
		name          string
		setupMocks    func(r *resources, code string)
		expectError   bool
		expectedError error
	}{
		{
			name: "Should remove player from the durable list",
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("ActiveRoomFor", r.ctx, userID).
					Return(model.CurrentRoom{InRoom: true, RoomCode: code}, nil).Once()
				r.roomRepo.On("Players", r.ctx, code).
					Return([]int64{1, userID}, nil).Once()
				r.roomRepo.On("SetPlayers", r.ctx, code, []int64{1}).
					Return(nil).Once()
			},
			expectError: false,
		},
		{
			name: "Should reject when user is not in any room",
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("ActiveRoomFor", r.ctx, userID).
					Return(model.CurrentRoom{}, nil).Once()
			},
			expectError:   true,
			expectedError: ErrNotInRoom,
		},
		{
			name: "Should reject host leaving",
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("ActiveRoomFor", r.ctx, userID).
					Return(model.CurrentRoom{InRoom: true, RoomCode: code, IsHost: true}, nil).Once()
			},
			expectError:   true,
			expectedError: ErrHostCannotLeave,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			code := validRoomCode()
			tc.setupMocks(r, code)

			err := r.usecase.Leave(r.ctx, userID)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.roomRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseRoomUnitSuite) TestDeactivate(t provider.T) {
	t.Parallel()

	const hostID = int64(42)

	testCases := []struct {
		name          string
		userID        int64
		setupMocks    func(r *resources, code string)
		expectError   bool
		expectedError error
	}{
		{
			name:   "Should deactivate when caller is host",
			userID: hostID,
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("HostID", r.ctx, code).Return(hostID, nil).Once()
				r.roomRepo.On("Deactivate", r.ctx, code).Return(nil).Once()
			},
			expectError: false,
		},
		{
			name:   "Should reject non-host caller",
			userID: hostID + 1,
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("HostID", r.ctx, code).Return(hostID, nil).Once()
			},
			expectError:   true,
			expectedError: ErrNotHost,
		},
		{
			name:   "Should report missing room",
			userID: hostID,
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("HostID", r.ctx, code).
					Return(int64(0), ErrResourceNotFound).Once()
			},
			expectError:   true,
			expectedError: ErrResourceNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			code := validRoomCode()
			tc.setupMocks(r, code)

			err := r.usecase.Deactivate(r.ctx, code, tc.userID)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.roomRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseRoomUnitSuite) TestSaveConfiguration(t provider.T) {
	t.Parallel()

	cfg := model.GameConfig{
		GameType:   "guess_the_track",
		Playlists:  []string{"37i9dQZF1DXcBWIGoYBM5M"},
		TrackLimit: 20,
	}

	testCases := []struct {
		name          string
		setupMocks    func(r *resources, code string)
		expectError   bool
		expectedError error
	}{
		{
			name: "Should store configuration",
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("SaveConfiguration", r.ctx, code, cfg).Return(nil).Once()
			},
			expectError: false,
		},
		{
			name: "Should report missing room",
			setupMocks: func(r *resources, code string) {
				r.roomRepo.On("SaveConfiguration", r.ctx, code, cfg).
					Return(ErrResourceNotFound).Once()
			},
			expectError:   true,
			expectedError: ErrResourceNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			code := validRoomCode()
			tc.setupMocks(r, code)

			err := r.usecase.SaveConfiguration(r.ctx, code, cfg)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			r.roomRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseRoomUnitSuite) TestPreferences(t provider.T) {
	t.Parallel()

	r := initResources(t)
	code := validRoomCode()
	want := model.GameConfig{GameType: "guess_the_artist", TrackLimit: 10}
	r.roomRepo.On("Preferences", r.ctx, code).Return(want, nil).Once()

	got, err := r.usecase.Preferences(r.ctx, code)

	assert.NoError(t, err)
	assert.Equal(t, want, got)
	r.roomRepo.AssertExpectations(t)
}

func (suite *UsecaseRoomUnitSuite) TestIsHost(t provider.T) {
	t.Parallel()

	r := initResources(t)
	code := validRoomCode()
	r.roomRepo.On("HostID", r.ctx, code).Return(int64(42), nil).Twice()

	isHost, err := r.usecase.IsHost(r.ctx, code, 42)
	assert.NoError(t, err)
	assert.True(t, isHost)

	isHost, err = r.usecase.IsHost(r.ctx, code, 43)
	assert.NoError(t, err)
	assert.False(t, isHost)

	r.roomRepo.AssertExpectations(t)
}

func TestUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(UsecaseRoomUnitSuite))
}
