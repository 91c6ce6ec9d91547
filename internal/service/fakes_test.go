package service

import (
	"Glimpse/internal/api/dto"
	"Glimpse/internal/model"
	"Glimpse/internal/pkg/mongo"
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeStatusRepo 内存版 StatusRepo，过滤规则与 mongo 实现一致
type fakeStatusRepo struct {
	mu         sync.Mutex
	docs       map[uint64]*mongo.StatusModel
	replaceErr error
	viewErr    error
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{docs: map[uint64]*mongo.StatusModel{}}
}

func cloneStatus(s *mongo.StatusModel) *mongo.StatusModel {
	if s == nil {
		return nil
	}
	c := *s
	c.Viewers = append([]mongo.StatusViewer{}, s.Viewers...)
	return &c
}

func (r *fakeStatusRepo) Replace(_ context.Context, status *mongo.StatusModel) (*mongo.StatusModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return nil, r.replaceErr
	}
	prior := r.docs[status.OwnerID]
	r.docs[status.OwnerID] = cloneStatus(status)
	return prior, nil
}

func (r *fakeStatusRepo) FindLive(_ context.Context, ownerID uint64, now time.Time) (*mongo.StatusModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := r.docs[ownerID]
	if !doc.IsLive(now) {
		return nil, nil
	}
	return cloneStatus(doc), nil
}

func (r *fakeStatusRepo) AddViewer(_ context.Context, ownerID, viewerID uint64, now time.Time) (*mongo.StatusModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.viewErr != nil {
		return nil, r.viewErr
	}
	doc := r.docs[ownerID]
	if !doc.IsLive(now) || hasViewer(doc, viewerID) {
		return nil, nil
	}
	doc.Viewers = append(doc.Viewers, mongo.StatusViewer{UserID: viewerID, ViewedAt: now})
	return cloneStatus(doc), nil
}

func hasViewer(doc *mongo.StatusModel, viewerID uint64) bool {
	for _, v := range doc.Viewers {
		if v.UserID == viewerID {
			return true
		}
	}
	return false
}

func (r *fakeStatusRepo) DeleteLive(_ context.Context, ownerID uint64, now time.Time) (*mongo.StatusModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := r.docs[ownerID]
	if !doc.IsLive(now) {
		return nil, nil
	}
	delete(r.docs, ownerID)
	return doc, nil
}

func (r *fakeStatusRepo) DistinctLiveOwners(_ context.Context, excludeID uint64, now time.Time) ([]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint64
	for id, doc := range r.docs {
		if id != excludeID && doc.IsLive(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeStatusRepo) ExistsLive(_ context.Context, ownerID uint64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[ownerID].IsLive(now), nil
}

func (r *fakeStatusRepo) FindExpired(_ context.Context, now time.Time, limit int64) ([]*mongo.StatusModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*mongo.StatusModel
	for _, doc := range r.docs {
		if !doc.IsLive(now) && int64(len(res)) < limit {
			res = append(res, cloneStatus(doc))
		}
	}
	return res, nil
}

func (r *fakeStatusRepo) DeleteByStatusID(_ context.Context, ownerID uint64, statusID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := r.docs[ownerID]
	if doc == nil || doc.StatusID != statusID {
		return false, nil
	}
	delete(r.docs, ownerID)
	return true, nil
}

func (r *fakeStatusRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

// fakeStore 内存对象存储
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return key, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) PublicURL(key string) string {
	if strings.HasPrefix(key, "http") {
		return key
	}
	return "https://cdn.test/" + key
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *fakeStore) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.deleted...)
}

// fakeDirectory 固定的用户资料
type fakeDirectory struct {
	users map[uint64]*dto.UserBriefDTO
	err   error
}

func newFakeDirectory(ids ...uint64) *fakeDirectory {
	d := &fakeDirectory{users: map[uint64]*dto.UserBriefDTO{}}
	for _, id := range ids {
		d.users[id] = &dto.UserBriefDTO{UserID: id, Nickname: "user" + strconv.FormatUint(id, 10)}
	}
	return d
}

func (d *fakeDirectory) Resolve(ctx context.Context, id uint64) (*dto.UserBriefDTO, error) {
	res, err := d.ResolveMany(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	return res[id], nil
}

func (d *fakeDirectory) ResolveMany(_ context.Context, ids []uint64) (map[uint64]*dto.UserBriefDTO, error) {
	if d.err != nil {
		return nil, d.err
	}
	res := map[uint64]*dto.UserBriefDTO{}
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			res[id] = u
		}
	}
	return res, nil
}

func (d *fakeDirectory) GetUserInfo(_ context.Context, id uint64) (*dto.UserInfoDTO, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &dto.UserInfoDTO{UserID: u.UserID, Nickname: u.Nickname, AvatarURL: u.AvatarURL}, nil
}

func (d *fakeDirectory) Invalidate(context.Context, ...uint64) error {
	return nil
}

// fakeUserRepo 内存用户表
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint64]*model.User
	calls int
}

func (r *fakeUserRepo) GetUserById(_ context.Context, id uint64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.users[id], nil
}

func (r *fakeUserRepo) GetUserByIds(_ context.Context, ids []uint64) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	var res []*model.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}
