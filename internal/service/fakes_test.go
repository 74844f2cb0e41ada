package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ClubHub/club-service/internal/config"
	"github.com/ClubHub/club-service/internal/model"
	"github.com/ClubHub/club-service/internal/repository"
	"github.com/ClubHub/club-service/internal/repository/postgres"
	"github.com/ClubHub/club-service/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	errBoom         = errors.New("boom")
	uniqueViolation = &pgconn.PgError{Code: "23505"}
)

type fakeCache struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	scans  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = fmt.Sprint(value)
	return nil
}

func (c *fakeCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = string(valueJSON)
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return redis.NewStringResult("", c.getErr)
	}
	value, ok := c.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := c.data[key]; ok {
			delete(c.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

// Scan pages through matching keys two at a time, whatever count is asked for.
func (c *fakeCache) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scans++
	keys := []string{}
	for key := range c.data {
		if ok, _ := path.Match(match, key); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	end := cursor + 2
	if end >= uint64(len(keys)) {
		return redis.NewScanCmdResult(keys[min(cursor, uint64(len(keys))):], 0, nil)
	}
	return redis.NewScanCmdResult(keys[cursor:end], end, nil)
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Create(ctx context.Context, user model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, uniqueViolation
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	r.users[user.ID] = &user
	return &user, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			user := *u
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user := *u
	return &user, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*model.Profile
	finds    int
}

func (r *fakeProfileRepo) Upsert(ctx context.Context, profile model.Profile) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.profiles[profile.UserID]; ok {
		profile.AvatarURL = existing.AvatarURL
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = time.Now()
	}
	profile.UpdatedAt = time.Now()
	r.profiles[profile.UserID] = &profile
	return &profile, nil
}

func (r *fakeProfileRepo) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	profile.AvatarURL = &avatarURL
	return nil
}

func (r *fakeProfileRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	p := *profile
	return &p, nil
}

type fakeClubRepo struct {
	mu         sync.Mutex
	nextID     int64
	clubs      map[int64]*model.Club
	members    map[int64]map[uuid.UUID]bool
	admins     map[int64]map[uuid.UUID]bool
	createErrs []error
}

func newFakeClubRepo() *fakeClubRepo {
	return &fakeClubRepo{
		clubs:   make(map[int64]*model.Club),
		members: make(map[int64]map[uuid.UUID]bool),
		admins:  make(map[int64]map[uuid.UUID]bool),
	}
}

func (r *fakeClubRepo) codeTaken(code string) bool {
	for _, c := range r.clubs {
		if c.Code == code {
			return true
		}
	}
	return false
}

func (r *fakeClubRepo) Create(ctx context.Context, club model.Club) (*model.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		return nil, err
	}
	if r.codeTaken(club.Code) {
		return nil, uniqueViolation
	}
	r.nextID++
	club.ID = r.nextID
	club.CreatedAt = time.Now()
	r.clubs[club.ID] = &club
	r.members[club.ID] = map[uuid.UUID]bool{club.CreatorID: true}
	r.admins[club.ID] = map[uuid.UUID]bool{club.CreatorID: true}
	return &club, nil
}

func (r *fakeClubRepo) UpdateCode(ctx context.Context, id int64, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	club, ok := r.clubs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if r.codeTaken(code) {
		return uniqueViolation
	}
	club.Code = code
	return nil
}

func (r *fakeClubRepo) FindByID(ctx context.Context, id int64) (*model.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	club, ok := r.clubs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *club
	return &c, nil
}

func (r *fakeClubRepo) FindByCode(ctx context.Context, code string) (*model.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, club := range r.clubs {
		if club.Code == code {
			c := *club
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeClubRepo) SearchByName(ctx context.Context, query string, excludeMember uuid.UUID, limit int) ([]*model.ClubSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clubs := []*model.ClubSummary{}
	for id := int64(1); id <= r.nextID; id++ {
		club, ok := r.clubs[id]
		if !ok || r.members[id][excludeMember] {
			continue
		}
		if containsFold(club.Name, query) {
			clubs = append(clubs, &model.ClubSummary{ID: club.ID, Name: club.Name, LogoURL: club.LogoURL})
		}
	}
	return clubs, nil
}

func (r *fakeClubRepo) FindUserClubs(ctx context.Context, userID uuid.UUID) ([]*model.ClubSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clubs := []*model.ClubSummary{}
	for id := int64(1); id <= r.nextID; id++ {
		if club, ok := r.clubs[id]; ok && r.members[id][userID] {
			clubs = append(clubs, &model.ClubSummary{ID: club.ID, Name: club.Name, LogoURL: club.LogoURL})
		}
	}
	return clubs, nil
}

func (r *fakeClubRepo) AddMember(ctx context.Context, clubID int64, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[clubID] == nil {
		r.members[clubID] = make(map[uuid.UUID]bool)
	}
	if r.members[clubID][userID] {
		return uniqueViolation
	}
	r.members[clubID][userID] = true
	return nil
}

func (r *fakeClubRepo) IsMember(ctx context.Context, clubID int64, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[clubID][userID], nil
}

func (r *fakeClubRepo) IsAdmin(ctx context.Context, clubID int64, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.admins[clubID][userID], nil
}

type fakePostRepo struct {
	mu        sync.Mutex
	nextID    int64
	posts     map[int64]*model.FullPost
	feedCalls int
	after     time.Time
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*model.FullPost)}
}

func (r *fakePostRepo) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	post.ID = r.nextID
	post.CreatedAt = time.Now()
	r.posts[post.ID] = &model.FullPost{Post: post}
	return &post, nil
}

func (r *fakePostRepo) FindByID(ctx context.Context, id int64) (*model.FullPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	p := *post
	return &p, nil
}

func (r *fakePostRepo) FindClubFeed(ctx context.Context, clubID int64, limit int, offset int) ([]*model.FullPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedCalls++
	posts := []*model.FullPost{}
	for id := r.nextID; id >= 1; id-- {
		if post, ok := r.posts[id]; ok && post.Post.ClubID == clubID {
			p := *post
			posts = append(posts, &p)
		}
	}
	if offset >= len(posts) {
		return []*model.FullPost{}, nil
	}
	posts = posts[offset:]
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *fakePostRepo) FindRSVPedEventsAfter(ctx context.Context, userID uuid.UUID, after time.Time) ([]*model.FullPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.after = after
	events := []*model.FullPost{}
	for _, post := range r.posts {
		if post.Post.Kind == model.PostKindEvent && post.Post.EventTime != nil && !post.Post.EventTime.Before(after) {
			p := *post
			events = append(events, &p)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Post.EventTime.Before(*events[j].Post.EventTime)
	})
	return events, nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.posts, id)
	return nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	nextID   int64
	comments []*model.Comment
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, &comment)
	c := comment
	return &c, nil
}

func (r *fakeCommentRepo) FindByID(ctx context.Context, id int64) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.comments {
		if c.ID == id {
			comment := *c
			return &comment, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCommentRepo) FindPostComments(ctx context.Context, postID int64) ([]*model.FullComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comments := []*model.FullComment{}
	for _, c := range r.comments {
		if c.PostID == postID {
			comments = append(comments, &model.FullComment{Comment: *c})
		}
	}
	return comments, nil
}

func (r *fakeCommentRepo) Delete(ctx context.Context, commentID int64, authorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.comments {
		if c.ID == commentID && c.AuthorID == authorID {
			r.comments = append(r.comments[:i], r.comments[i+1:]...)
			for _, other := range r.comments {
				if other.ParentID != nil && *other.ParentID == commentID {
					other.ParentID = nil
				}
			}
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeReactionRepo struct {
	mu      sync.Mutex
	records map[int64]map[uuid.UUID]bool
	failAdd bool
}

func newFakeReactionRepo() *fakeReactionRepo {
	return &fakeReactionRepo{records: make(map[int64]map[uuid.UUID]bool)}
}

func (r *fakeReactionRepo) Add(ctx context.Context, subjectID int64, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAdd {
		return errBoom
	}
	if r.records[subjectID] == nil {
		r.records[subjectID] = make(map[uuid.UUID]bool)
	}
	r.records[subjectID][userID] = true
	return nil
}

func (r *fakeReactionRepo) Remove(ctx context.Context, subjectID int64, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records[subjectID], userID)
	return nil
}

func (r *fakeReactionRepo) Count(ctx context.Context, subjectID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.records[subjectID])), nil
}

func (r *fakeReactionRepo) Exists(ctx context.Context, subjectID int64, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[subjectID][userID], nil
}

type fakePollResponseRepo struct {
	mu        sync.Mutex
	responses []model.PollResponse
}

func (r *fakePollResponseRepo) Upsert(ctx context.Context, response model.PollResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.responses {
		if existing.PostID == response.PostID && existing.UserID == response.UserID {
			r.responses[i].SelectedOption = response.SelectedOption
			return nil
		}
	}
	r.responses = append(r.responses, response)
	return nil
}

func (r *fakePollResponseRepo) FindByPost(ctx context.Context, postID int64) ([]model.PollResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	responses := []model.PollResponse{}
	for _, response := range r.responses {
		if response.PostID == postID {
			responses = append(responses, response)
		}
	}
	return responses, nil
}

type fakeBroker struct {
	mu         sync.Mutex
	published  []interface{}
	publishErr error
	deliveries chan amqp.Delivery
}

func (b *fakeBroker) PublishJSON(ctx context.Context, exchange string, key string, body interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, body)
	return nil
}

func (b *fakeBroker) Consume(queue string) (<-chan amqp.Delivery, error) {
	return b.deliveries, nil
}

type fakeUploader struct {
	uploads []string
	err     error
}

func (u *fakeUploader) Upload(ctx context.Context, path string, fileHeader *multipart.FileHeader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.uploads = append(u.uploads, path+"/"+fileHeader.Filename)
	return "https://cdn.test/" + path + "/" + fileHeader.Filename, nil
}

// testEnv wires every fake into a repository the services can use.
type testEnv struct {
	repo      *repository.Repository
	cache     *fakeCache
	users     *fakeUserRepo
	profiles  *fakeProfileRepo
	clubs     *fakeClubRepo
	posts     *fakePostRepo
	comments  *fakeCommentRepo
	likes     *fakeReactionRepo
	rsvps     *fakeReactionRepo
	responses *fakePollResponseRepo
	logger    *zap.Logger
	cfg       config.AppConfig
}

func newTestEnv() *testEnv {
	env := &testEnv{
		cache:     newFakeCache(),
		users:     &fakeUserRepo{users: make(map[uuid.UUID]*model.User)},
		profiles:  &fakeProfileRepo{profiles: make(map[uuid.UUID]*model.Profile)},
		clubs:     newFakeClubRepo(),
		posts:     newFakePostRepo(),
		comments:  &fakeCommentRepo{},
		likes:     newFakeReactionRepo(),
		rsvps:     newFakeReactionRepo(),
		responses: &fakePollResponseRepo{},
		logger:    zap.NewNop(),
		cfg: config.AppConfig{
			FeedMaxLimit: 20,
			CacheTTL:     time.Minute,
			TokenTTL:     time.Minute,
			AccessSecret: []byte("test-secret"),
		},
	}

	env.repo = &repository.Repository{
		Postgres: &postgres.PostgresRepository{
			User:         env.users,
			Profile:      env.profiles,
			Club:         env.clubs,
			Post:         env.posts,
			Comment:      env.comments,
			Likes:        env.likes,
			RSVPs:        env.rsvps,
			PollResponse: env.responses,
		},
		Redis: &redisrepo.RedisRepository{Default: env.cache},
	}

	return env
}

func (env *testEnv) addPost(post model.Post) *model.Post {
	created, _ := env.posts.Create(context.Background(), post)
	return created
}

func (env *testEnv) addMember(clubID int64, userID uuid.UUID) {
	_ = env.clubs.AddMember(context.Background(), clubID, userID)
}

// member returns a fresh user who belongs to the club.
func (env *testEnv) member(clubID int64) uuid.UUID {
	userID := uuid.New()
	env.addMember(clubID, userID)
	return userID
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
