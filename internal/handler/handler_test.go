package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ClubHub/club-service/internal/dto"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/service"
	"github.com/ClubHub/club-service/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	viper.Set("client.origin", "http://localhost:3000")
	os.Exit(m.Run())
}

// Fakes embed the service interface; calling a method a test did not stub panics.
type fakeAuth struct {
	service.Auth
	users map[uuid.UUID]model.User
}

func (f *fakeAuth) FindUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &user, nil
}

type fakeClubs struct {
	service.Club
	admins map[int64]uuid.UUID
	clubs  []*model.ClubSummary
	gotID  uuid.UUID
}

func (f *fakeClubs) IsAdmin(ctx context.Context, clubID int64, userID uuid.UUID) (bool, error) {
	return f.admins[clubID] == userID, nil
}

func (f *fakeClubs) RegenerateCode(ctx context.Context, clubID int64) (string, error) {
	return "NEW123", nil
}

func (f *fakeClubs) FindUserClubs(ctx context.Context, userID uuid.UUID) ([]*model.ClubSummary, error) {
	f.gotID = userID
	return f.clubs, nil
}

type fakePosts struct {
	service.Post
	gotLimit  int
	gotOffset int
}

func (f *fakePosts) FindByID(ctx context.Context, id int64) (*model.FullPost, error) {
	if id != 1 {
		return nil, service.ErrNotFound
	}
	return &model.FullPost{Post: model.Post{ID: 1, Kind: model.PostKindPost}}, nil
}

func (f *fakePosts) Feed(ctx context.Context, clubID int64, userID uuid.UUID, limit int, offset int) ([]*dto.FeedItem, error) {
	if clubID != 1 {
		return nil, service.ErrNotMember
	}
	f.gotLimit, f.gotOffset = limit, offset
	return []*dto.FeedItem{{Post: model.FullPost{Post: model.Post{ID: 1, ClubID: 1, Kind: model.PostKindPost}}}}, nil
}

type fakeComments struct {
	service.Comment
	gotParent *int64
}

func (f *fakeComments) Create(ctx context.Context, postID int64, authorID uuid.UUID, input dto.CreateCommentRequest) (*model.Comment, error) {
	switch {
	case postID != 1:
		return nil, service.ErrNotMember
	case input.ParentID != nil && *input.ParentID == 99:
		return nil, service.ErrParentNotInPost
	}
	f.gotParent = input.ParentID
	return &model.Comment{ID: 10, PostID: postID, AuthorID: authorID, ParentID: input.ParentID, Content: input.Content}, nil
}

func (f *fakeComments) FindThread(ctx context.Context, postID int64) ([]*model.CommentNode, error) {
	return []*model.CommentNode{}, nil
}

type fakePolls struct {
	service.Poll
}

func (f *fakePolls) Vote(ctx context.Context, postID int64, userID uuid.UUID, option string) (*model.PollTally, error) {
	switch {
	case postID != 1:
		return nil, service.ErrNotMember
	case option != "yes" && option != "no":
		return nil, service.ErrInvalidOption
	}
	return &model.PollTally{OptionCounts: map[string]int64{option: 1}, TotalVotes: 1, CurrentUserSelection: &option}, nil
}

type fakeEngagement struct {
	service.Engagement
	gotUser uuid.UUID
	updates chan model.EngagementUpdate
}

func (f *fakeEngagement) ToggleLike(ctx context.Context, postID int64, userID uuid.UUID) (dto.LikeState, error) {
	f.gotUser = userID
	return dto.LikeState{Count: 1, LikedByCurrentUser: true}, nil
}

func (f *fakeEngagement) LikeState(ctx context.Context, postID int64, userID uuid.UUID) (dto.LikeState, error) {
	f.gotUser = userID
	return dto.LikeState{Count: 4}, nil
}

func (f *fakeEngagement) ToggleRSVP(ctx context.Context, postID int64, userID uuid.UUID) (dto.RSVPState, error) {
	return dto.RSVPState{}, service.ErrNotAnEvent
}

func (f *fakeEngagement) Subscribe(postID int64) (<-chan model.EngagementUpdate, func()) {
	return f.updates, func() {}
}

type testRouter struct {
	engine     *gin.Engine
	user       model.User
	token      string
	auth       *fakeAuth
	clubs      *fakeClubs
	posts      *fakePosts
	comments   *fakeComments
	polls      *fakePolls
	engagement *fakeEngagement
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()

	user := model.User{ID: uuid.New(), Email: "ann@example.com"}
	token, err := utils.GenerateJWT(user.ID, user.Email, testSecret, time.Minute)
	require.NoError(t, err)

	tr := &testRouter{
		user:       user,
		token:      token,
		auth:       &fakeAuth{users: map[uuid.UUID]model.User{user.ID: user}},
		clubs:      &fakeClubs{admins: map[int64]uuid.UUID{}},
		posts:      &fakePosts{},
		comments:   &fakeComments{},
		polls:      &fakePolls{},
		engagement: &fakeEngagement{updates: make(chan model.EngagementUpdate, 4)},
	}

	services := &service.Service{
		Auth:       tr.auth,
		Club:       tr.clubs,
		Post:       tr.posts,
		Comment:    tr.comments,
		Poll:       tr.polls,
		Engagement: tr.engagement,
	}
	tr.engine = New(services, zap.NewNop(), testSecret).InitRoutes()

	return tr
}

func (tr *testRouter) do(method string, path string, body string, authorized bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+tr.token)
	}

	w := httptest.NewRecorder()
	tr.engine.ServeHTTP(w, req)
	return w
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrAlreadyExists, http.StatusConflict},
		{service.ErrAlreadyMember, http.StatusConflict},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrNotMember, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrNotAnEvent, http.StatusBadRequest},
		{service.ErrInvalidOption, http.StatusBadRequest},
		{service.ErrParentNotInPost, http.StatusBadRequest},
		{service.ErrFailedToUploadImageToCDN, http.StatusBadGateway},
		{service.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, errorStatus(tt.err), tt.err.Error())
	}
}

func TestAuthMiddleware(t *testing.T) {
	tr := newTestRouter(t)
	tr.clubs.clubs = []*model.ClubSummary{{ID: 3, Name: "Chess"}}

	w := tr.do(http.MethodGet, "/api/v1/clubs/my", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clubs/my", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	tr.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = tr.do(http.MethodGet, "/api/v1/clubs/my", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tr.user.ID, tr.clubs.gotID)

	var clubs []model.ClubSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &clubs))
	require.Len(t, clubs, 1)
	assert.Equal(t, "Chess", clubs[0].Name)
}

func TestAuthMiddlewareUnknownUser(t *testing.T) {
	tr := newTestRouter(t)
	delete(tr.auth.users, tr.user.ID)

	w := tr.do(http.MethodGet, "/api/v1/clubs/my", "", true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClubAdminMiddleware(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodPost, "/api/v1/clubs/5/code", "", true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	tr.clubs.admins[5] = tr.user.ID
	w = tr.do(http.MethodPost, "/api/v1/clubs/5/code", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code": "NEW123"}`, w.Body.String())

	w = tr.do(http.MethodPost, "/api/v1/clubs/abc/code", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRegisterValidation(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodPost, "/api/v1/auth/register", `{"email": "not-an-email", "password": "secret1"}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/auth/register", `{"email": "ann@example.com", "password": "123"}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostsLike(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodPost, "/api/v1/posts/1/like", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/posts/1/like", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count": 1, "liked_by_current_user": true}`, w.Body.String())
	assert.Equal(t, tr.user.ID, tr.engagement.gotUser)

	w = tr.do(http.MethodPost, "/api/v1/posts/x/like", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostsLikeStateAnonymous(t *testing.T) {
	tr := newTestRouter(t)
	tr.engagement.gotUser = uuid.New()

	w := tr.do(http.MethodGet, "/api/v1/posts/1/like", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil, tr.engagement.gotUser)

	w = tr.do(http.MethodGet, "/api/v1/posts/1/like", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tr.user.ID, tr.engagement.gotUser)
}

func TestPostsRSVPOnNonEvent(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodPost, "/api/v1/posts/1/rsvp", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.BasicResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Ok)
	assert.Equal(t, service.ErrNotAnEvent.Error(), resp.Details)
}

func TestPostsStream(t *testing.T) {
	tr := newTestRouter(t)
	srv := httptest.NewServer(tr.engine)
	defer srv.Close()

	tr.engagement.updates <- model.EngagementUpdate{PostID: 1, Relation: model.RelationLikes, Count: 3}
	close(tr.engagement.updates)

	resp, err := srv.Client().Get(srv.URL + "/api/v1/posts/1/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))
	assert.Contains(t, string(body), "event:"+STREAM_EVENT)
	assert.Contains(t, string(body), `"count":3`)
}

func TestPostsStreamUnknownPost(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodGet, "/api/v1/posts/2/stream", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostsFeed(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodGet, "/api/v1/clubs/1/feed", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = tr.do(http.MethodGet, "/api/v1/clubs/1/feed?limit=5&offset=10", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, tr.posts.gotLimit)
	assert.Equal(t, 10, tr.posts.gotOffset)

	var items []dto.FeedItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, items[0].Post.Post.ID)

	w = tr.do(http.MethodGet, "/api/v1/clubs/1/feed?limit=ten", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), errLimitMustBeInt.Error())

	w = tr.do(http.MethodGet, "/api/v1/clubs/2/feed", "", true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCommentsCreate(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodPost, "/api/v1/posts/1/comments", `{"content": "hi"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/posts/1/comments", `{"content": ""}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/posts/1/comments", `{"content": "hi", "parent_id": 3}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, tr.comments.gotParent)
	assert.EqualValues(t, 3, *tr.comments.gotParent)

	w = tr.do(http.MethodPost, "/api/v1/posts/1/comments", `{"content": "hi", "parent_id": 99}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/posts/2/comments", `{"content": "hi"}`, true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCommentsGet(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodGet, "/api/v1/posts/1/comments", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = tr.do(http.MethodGet, "/api/v1/posts/x/comments", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostsVote(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodPost, "/api/v1/posts/1/vote", `{"option": "yes"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/posts/1/vote", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/posts/1/vote", `{"option": "maybe"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/posts/2/vote", `{"option": "yes"}`, true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/posts/1/vote", `{"option": "yes"}`, true)
	require.Equal(t, http.StatusOK, w.Code)

	var tally model.PollTally
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tally))
	assert.EqualValues(t, 1, tally.TotalVotes)
	require.NotNil(t, tally.CurrentUserSelection)
	assert.Equal(t, "yes", *tally.CurrentUserSelection)
}
