package manager

import (
	"context"
	"fmt"
	"testing"
	"time"

	"todo-service/cache"
	"todo-service/database/dbtest"
	"todo-service/models"
	"todo-service/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	utilcache "github.com/umakantv/go-utils/cache"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	m         *Manager
	alice     int
	bob       int
	aliceTodo models.Todo
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := dbtest.New(t)
	ctx := context.Background()

	users := store.NewUserStore(db, bcrypt.MinCost)
	alice, err := users.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	bob, err := users.Register(ctx, "bob", "bob@example.com", "secret1")
	require.NoError(t, err)

	m := New(store.NewTodoStore(db), store.NewTaskStore(db), nil)
	todo, err := m.CreateTodo(ctx, alice.ID, models.TodoFields{Task: "groceries", EstimatedTime: 1})
	require.NoError(t, err)

	return fixture{m: m, alice: alice.ID, bob: bob.ID, aliceTodo: todo}
}

func TestGetTodoIncludesTasks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	got, err := f.m.GetTodo(ctx, f.alice, f.aliceTodo.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tasks)

	for i := 0; i < 2; i++ {
		_, err := f.m.CreateTask(ctx, f.alice, f.aliceTodo.ID, models.TaskFields{Task: fmt.Sprintf("item %d", i), Priority: "high"})
		require.NoError(t, err)
	}

	got, err = f.m.GetTodo(ctx, f.alice, f.aliceTodo.ID)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "item 0", got.Tasks[0].Task)
	assert.Equal(t, "item 1", got.Tasks[1].Task)
}

func TestOtherUsersCannotReachTodo(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	task, err := f.m.CreateTask(ctx, f.alice, f.aliceTodo.ID, models.TaskFields{Task: "milk", Priority: "low"})
	require.NoError(t, err)

	_, err = f.m.GetTodo(ctx, f.bob, f.aliceTodo.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.m.UpdateTodo(ctx, f.bob, f.aliceTodo.ID, models.TodoFields{Task: "mine now"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.m.DeleteTodo(ctx, f.bob, f.aliceTodo.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.m.ListTasks(ctx, f.bob, f.aliceTodo.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.m.GetTask(ctx, f.bob, f.aliceTodo.ID, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.m.CreateTask(ctx, f.bob, f.aliceTodo.ID, models.TaskFields{Task: "sneaky", Priority: "low"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.m.UpdateTask(ctx, f.bob, f.aliceTodo.ID, task.ID, models.TaskFields{Task: "sneaky", Priority: "low"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.m.DeleteTask(ctx, f.bob, f.aliceTodo.ID, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// alice still sees everything untouched
	got, err := f.m.GetTodo(ctx, f.alice, f.aliceTodo.ID)
	require.NoError(t, err)
	assert.Equal(t, "groceries", got.Task)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "milk", got.Tasks[0].Task)

	bobs, err := f.m.ListTodos(ctx, f.bob)
	require.NoError(t, err)
	assert.Empty(t, bobs)
}

func TestSameTitleForDifferentOwners(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.m.CreateTodo(ctx, f.bob, models.TodoFields{Task: "groceries"})
	require.NoError(t, err)

	_, err = f.m.CreateTodo(ctx, f.alice, models.TodoFields{Task: "groceries"})
	assert.ErrorIs(t, err, store.ErrDuplicateTitle)
}

func TestDeleteTodoCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.m.CreateTask(ctx, f.alice, f.aliceTodo.ID, models.TaskFields{Task: fmt.Sprintf("t%d", i), Priority: "low"})
		require.NoError(t, err)
	}

	deleted, err := f.m.DeleteTodo(ctx, f.alice, f.aliceTodo.ID)
	require.NoError(t, err)
	assert.Equal(t, f.aliceTodo.ID, deleted.ID)

	_, err = f.m.GetTodo(ctx, f.alice, f.aliceTodo.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.m.ListTasks(ctx, f.alice, f.aliceTodo.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	todos, err := f.m.ListTodos(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestListTodosIsStable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.m.CreateTodo(ctx, f.alice, models.TodoFields{Task: "laundry"})
	require.NoError(t, err)

	first, err := f.m.ListTodos(ctx, f.alice)
	require.NoError(t, err)
	second, err := f.m.ListTodos(ctx, f.alice)
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Task, second[i].Task)
	}
	assert.Equal(t, "groceries", first[0].Task)
	assert.Equal(t, "laundry", first[1].Task)
}

func TestTaskOutsideTodoIsNotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other, err := f.m.CreateTodo(ctx, f.alice, models.TodoFields{Task: "other"})
	require.NoError(t, err)
	task, err := f.m.CreateTask(ctx, f.alice, other.ID, models.TaskFields{Task: "x", Priority: "low"})
	require.NoError(t, err)

	_, err = f.m.GetTask(ctx, f.alice, f.aliceTodo.ID, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.m.DeleteTask(ctx, f.alice, f.aliceTodo.ID, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListTodosCache(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	users := store.NewUserStore(db, bcrypt.MinCost)
	alice, err := users.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	backend, err := utilcache.New(utilcache.Config{Type: "memory"})
	require.NoError(t, err)
	m := New(store.NewTodoStore(db), store.NewTaskStore(db), cache.NewStore(backend))

	todo, err := m.CreateTodo(ctx, alice.ID, models.TodoFields{Task: "groceries"})
	require.NoError(t, err)

	// insertBehind writes a todo without going through the manager, so only a
	// fresh read from the database can see it.
	insertBehind := func(task string) {
		now := time.Now().UTC()
		db.MustExec("INSERT INTO todos (task, body, estimated_time, user_id, created_at, updated_at) VALUES (?, '', 0, ?, ?, ?)",
			task, alice.ID, now, now)
	}
	titles := func() []string {
		todos, err := m.ListTodos(ctx, alice.ID)
		require.NoError(t, err)
		out := []string{}
		for _, td := range todos {
			out = append(out, td.Task)
		}
		return out
	}

	assert.Equal(t, []string{"groceries"}, titles())
	assert.True(t, backend.Exists(cache.TodoListKey(alice.ID)))

	t.Run("served from cache", func(t *testing.T) {
		insertBehind("laundry")
		assert.Equal(t, []string{"groceries"}, titles())
	})

	t.Run("todo write invalidates", func(t *testing.T) {
		_, err := m.UpdateTodo(ctx, alice.ID, todo.ID, models.TodoFields{Task: "shopping"})
		require.NoError(t, err)
		assert.False(t, backend.Exists(cache.TodoListKey(alice.ID)))
		assert.Equal(t, []string{"shopping", "laundry"}, titles())
	})

	t.Run("task write invalidates", func(t *testing.T) {
		insertBehind("dishes")
		assert.Equal(t, []string{"shopping", "laundry"}, titles())

		_, err := m.CreateTask(ctx, alice.ID, todo.ID, models.TaskFields{Task: "milk", Priority: "low"})
		require.NoError(t, err)
		assert.Equal(t, []string{"shopping", "laundry", "dishes"}, titles())
	})

	t.Run("failed write keeps cache", func(t *testing.T) {
		insertBehind("ironing")
		_, err := m.CreateTodo(ctx, alice.ID, models.TodoFields{Task: "shopping"})
		require.ErrorIs(t, err, store.ErrDuplicateTitle)
		assert.Equal(t, []string{"shopping", "laundry", "dishes"}, titles())
	})
}
