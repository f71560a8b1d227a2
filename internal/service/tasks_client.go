package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/dates"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"
)

const defaultTaskList = "@default"

// OAuthScopes are requested when minting the refresh token shared by every Google client.
var OAuthScopes = append(append([]string{}, googleScopes...), tasks.TasksScope)

// TasksClient creates follow-up items in the staff account's Google Tasks.
type TasksClient struct {
	service *tasks.Service
}

// NewTasksClient needs the OAuth refresh token; service accounts have no task lists.
func NewTasksClient(ctx context.Context) (*TasksClient, error) {
	creds, err := GetOAuthCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth credentials for Tasks: %w", err)
	}
	return newTasksClientWithOptions(ctx, option.WithTokenSource(creds.TokenSource()))
}

func newTasksClientWithOptions(ctx context.Context, opts ...option.ClientOption) (*TasksClient, error) {
	service, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &TasksClient{service: service}, nil
}

// FollowUpTitle is the title of the task created after the engagement e-mail.
func FollowUpTitle(nome string) string {
	return "Aguardar procuração assinada - " + nome
}

// CreateTask inserts task into the default list and returns its id.
func (tc *TasksClient) CreateTask(ctx context.Context, task *model.Task) (string, error) {
	item := &tasks.Task{Title: task.Title, Notes: task.Notes}
	if due := dueRFC3339(task.DueDate); due != "" {
		item.Due = due
	}

	created, err := tc.service.Tasks.Insert(defaultTaskList, item).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	log.Printf("Task created: %s", task.Title)
	return created.Id, nil
}

// TaskExists reports whether an open task with the same title exists.
func (tc *TasksClient) TaskExists(ctx context.Context, title string) (bool, error) {
	found := false
	err := tc.service.Tasks.List(defaultTaskList).
		ShowCompleted(false).
		Context(ctx).
		Pages(ctx, func(page *tasks.Tasks) error {
			for _, item := range page.Items {
				if item.Title == title {
					found = true
				}
			}
			return nil
		})
	if err != nil {
		return false, fmt.Errorf("failed to list tasks: %w", err)
	}
	return found, nil
}

// CreateFollowUp creates the "Aguardar procuração assinada" task due FOLLOW_UP_DAYS from now,
// unless an open one already exists. It returns the task id, or "" when skipped.
func (tc *TasksClient) CreateFollowUp(ctx context.Context, client *model.Client, folderURL string) (string, error) {
	title := FollowUpTitle(client.NomeCompleto)
	exists, err := tc.TaskExists(ctx, title)
	if err != nil {
		return "", err
	}
	if exists {
		log.Printf("Follow-up task already exists: %s", title)
		return "", nil
	}

	notes := fmt.Sprintf("Cliente: %s\nEmail: %s\nCelular: %s", client.NomeCompleto, client.Email, client.Celular)
	if folderURL != "" {
		notes += "\nPasta: " + folderURL
	}

	due := dates.Now().AddDate(0, 0, config.FollowUpDays)
	return tc.CreateTask(ctx, &model.Task{
		Title:   title,
		DueDate: due.Format("2006-01-02"),
		Notes:   notes,
	})
}

// dueRFC3339 accepts YYYYMMDD, YYYY-MM-DD or dd/mm/yyyy. Tasks ignores the time part.
func dueRFC3339(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"20060102", "2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02") + "T00:00:00.000Z"
		}
	}
	return ""
}
