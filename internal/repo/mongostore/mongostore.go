// Package mongostore implements the repo ports on MongoDB. Assignments are
// embedded in their task document; compare-and-set updates match on the
// assignment's version inside the array.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
)

const (
	collTasks         = "tasks"
	collReviews       = "reviews"
	collNotifications = "notifications"
	collPrefs         = "notification_prefs"
	collUsers         = "users"
	collProjects      = "projects"
)

type Store struct {
	tasks         *mongo.Collection
	reviews       *mongo.Collection
	notifications *mongo.Collection
	prefs         *mongo.Collection
	users         *mongo.Collection
	projects      *mongo.Collection

	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		tasks:         db.Collection(collTasks),
		reviews:       db.Collection(collReviews),
		notifications: db.Collection(collNotifications),
		prefs:         db.Collection(collPrefs),
		users:         db.Collection(collUsers),
		projects:      db.Collection(collProjects),
		now:           time.Now,
	}
}

// Client wraps the store in a repo.Client. closeFn runs on Client.Close.
func (s *Store) Client(closeFn func(ctx context.Context) error) *repo.Client {
	return repo.NewClient(s, reviewRepo{s}, notificationRepo{s}, directoryRepo{s}, closeFn)
}

// EnsureIndexes creates the indexes the queries below rely on. It is
// idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.tasks, []mongo.IndexModel{
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "assignments.proof_id", Value: 1}}},
			{Keys: bson.D{{Key: "assignments.employee_id", Value: 1}}},
			{Keys: bson.D{{Key: "assignments.status", Value: 1}}},
		}},
		{s.reviews, []mongo.IndexModel{
			{Keys: bson.D{{Key: "proof_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "reviewed_by", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "employee_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "project_id", Value: 1}}},
		}},
		{s.notifications, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}}},
		}},
		{s.projects, []mongo.IndexModel{
			{Keys: bson.D{{Key: "manager_id", Value: 1}}},
		}},
	}

	for _, spec := range specs {
		if _, err := spec.coll.Indexes().CreateMany(ctx, spec.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", spec.coll.Name(), err)
		}
	}
	return nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repo.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repo.ErrDuplicate, err)
	default:
		return err
	}
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

var taskOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

func (s *Store) CreateTask(ctx context.Context, task *schema.Task) error {
	doc := task.Clone()
	if doc.Assignments == nil {
		doc.Assignments = []schema.Assignment{}
	}
	_, err := s.tasks.InsertOne(ctx, doc)
	return mapErr(err)
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*schema.Task, error) {
	var t schema.Task
	if err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *Store) ListProjectTasks(ctx context.Context, projectID uuid.UUID) ([]*schema.Task, error) {
	cur, err := s.tasks.Find(ctx, bson.M{"project_id": projectID}, options.Find().SetSort(taskOrder))
	if err != nil {
		return nil, err
	}
	var out []*schema.Task
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) FindByProofID(ctx context.Context, proofID uuid.UUID) (*schema.Task, error) {
	if proofID == uuid.Nil {
		return nil, repo.ErrNotFound
	}
	var t schema.Task
	if err := s.tasks.FindOne(ctx, bson.M{"assignments.proof_id": proofID}).Decode(&t); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *Store) AddAssignment(ctx context.Context, taskID uuid.UUID, a schema.Assignment) (*schema.Assignment, error) {
	stored := a.Clone()
	stored.Version = 1

	res, err := s.tasks.UpdateOne(ctx,
		bson.M{"_id": taskID, "assignments.employee_id": bson.M{"$ne": a.EmployeeID}},
		bson.M{
			"$push": bson.M{"assignments": stored},
			"$set":  bson.M{"updated_at": s.now()},
		},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		if err := s.taskExists(ctx, taskID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("assignment for %s on task %s: %w", a.EmployeeID, taskID, repo.ErrDuplicate)
	}
	return &stored, nil
}

func (s *Store) UpdateAssignment(ctx context.Context, taskID, employeeID uuid.UUID, expectedVersion int64, next schema.Assignment) (*schema.Assignment, error) {
	stored := next.Clone()
	stored.EmployeeID = employeeID
	stored.Version = expectedVersion + 1

	res, err := s.tasks.UpdateOne(ctx,
		bson.M{
			"_id": taskID,
			"assignments": bson.M{"$elemMatch": bson.M{
				"employee_id": employeeID,
				"version":     expectedVersion,
			}},
		},
		bson.M{"$set": bson.M{
			"assignments.$": stored,
			"updated_at":    s.now(),
		}},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		t, err := s.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if t.AssignmentFor(employeeID) == nil {
			return nil, repo.ErrNotFound
		}
		return nil, repo.ErrVersionConflict
	}
	return &stored, nil
}

func (s *Store) ListAssignments(ctx context.Context, f repo.AssignmentFilter) ([]repo.AssignmentView, error) {
	filter := bson.M{}
	if f.ProjectIDs != nil {
		if len(f.ProjectIDs) == 0 {
			return nil, nil
		}
		filter["project_id"] = bson.M{"$in": f.ProjectIDs}
	}
	elem := bson.M{}
	if f.EmployeeID != uuid.Nil {
		elem["employee_id"] = f.EmployeeID
	}
	if f.Status != "" {
		elem["status"] = f.Status
	}
	if len(elem) > 0 {
		filter["assignments"] = bson.M{"$elemMatch": elem}
	}

	cur, err := s.tasks.Find(ctx, filter, options.Find().SetSort(taskOrder))
	if err != nil {
		return nil, err
	}
	var tasks []*schema.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}

	var out []repo.AssignmentView
	for _, t := range tasks {
		for _, a := range t.Assignments {
			if f.Status != "" && a.Status != f.Status {
				continue
			}
			if f.EmployeeID != uuid.Nil && a.EmployeeID != f.EmployeeID {
				continue
			}
			out = append(out, repo.AssignmentView{
				TaskID:        t.ID,
				TaskTitle:     t.Title,
				ProjectID:     t.ProjectID,
				TaskCreatedAt: t.CreatedAt,
				Assignment:    a,
			})
		}
	}
	return out, nil
}

func (s *Store) taskExists(ctx context.Context, id uuid.UUID) error {
	n, err := s.tasks.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

type reviewRepo struct{ s *Store }

var reviewOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "review_round", Value: 1}}

func (r reviewRepo) Append(ctx context.Context, rv *schema.Review) error {
	_, err := r.s.reviews.InsertOne(ctx, rv)
	return mapErr(err)
}

func (r reviewRepo) ListByProof(ctx context.Context, proofID uuid.UUID) ([]*schema.Review, error) {
	return r.find(ctx, bson.M{"proof_id": proofID})
}

func (r reviewRepo) ListSince(ctx context.Context, since time.Time, projectIDs []uuid.UUID) ([]*schema.Review, error) {
	filter := bson.M{"created_at": bson.M{"$gte": since}}
	if projectIDs != nil {
		if len(projectIDs) == 0 {
			return nil, nil
		}
		filter["project_id"] = bson.M{"$in": projectIDs}
	}
	return r.find(ctx, filter)
}

func (r reviewRepo) find(ctx context.Context, filter bson.M) ([]*schema.Review, error) {
	cur, err := r.s.reviews.Find(ctx, filter, options.Find().SetSort(reviewOrder))
	if err != nil {
		return nil, err
	}
	var out []*schema.Review
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(ctx context.Context, n *schema.Notification) error {
	_, err := r.s.notifications.InsertOne(ctx, n)
	return mapErr(err)
}

func (r notificationRepo) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, offset, limit int) ([]*schema.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.s.notifications.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []*schema.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r notificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.s.notifications.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r notificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.s.notifications.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r notificationRepo) MarkEmailed(ctx context.Context, id uuid.UUID) error {
	res, err := r.s.notifications.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_emailed": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r notificationRepo) GetPrefs(ctx context.Context, userID uuid.UUID) (*schema.NotificationPref, error) {
	var p schema.NotificationPref
	if err := r.s.prefs.FindOne(ctx, bson.M{"_id": userID}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r notificationRepo) UpsertPrefs(ctx context.Context, p *schema.NotificationPref) error {
	_, err := r.s.prefs.ReplaceOne(ctx, bson.M{"_id": p.UserID}, p, options.Replace().SetUpsert(true))
	return mapErr(err)
}

// ---------------------------------------------------------------------------
// Directory
// ---------------------------------------------------------------------------

type directoryRepo struct{ s *Store }

func (r directoryRepo) GetUser(ctx context.Context, id uuid.UUID) (*schema.User, error) {
	var u schema.User
	if err := r.s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r directoryRepo) GetProject(ctx context.Context, id uuid.UUID) (*schema.Project, error) {
	var p schema.Project
	if err := r.s.projects.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r directoryRepo) ListProjectsByManager(ctx context.Context, managerID uuid.UUID) ([]*schema.Project, error) {
	cur, err := r.s.projects.Find(ctx, bson.M{"manager_id": managerID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []*schema.Project
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r directoryRepo) UpsertUser(ctx context.Context, u *schema.User) error {
	_, err := r.s.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u, options.Replace().SetUpsert(true))
	return mapErr(err)
}

func (r directoryRepo) UpsertProject(ctx context.Context, p *schema.Project) error {
	_, err := r.s.projects.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, options.Replace().SetUpsert(true))
	return mapErr(err)
}
