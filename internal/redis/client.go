package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// ClassroomKey holds the classroom hash for a join code.
func ClassroomKey(joinCode string) string {
	return fmt.Sprintf("classroom:%s", joinCode)
}

// RosterKey holds the set of student ids that joined a classroom.
func RosterKey(joinCode string) string {
	return fmt.Sprintf("classroom:%s:students", joinCode)
}

// BroadcastKey holds the latest broadcast content for a classroom.
func BroadcastKey(joinCode string) string {
	return fmt.Sprintf("classroom:%s:broadcast", joinCode)
}

// TeacherClassesKey is the set of join codes a teacher currently runs.
func TeacherClassesKey(teacherID string) string {
	return fmt.Sprintf("teacher:%s:classes", teacherID)
}

// ActiveClassroomsKey is the set of all live join codes.
const ActiveClassroomsKey = "classrooms:active"

// BroadcastChannel is the pub/sub channel fanning out classroom events.
func BroadcastChannel(joinCode string) string {
	return fmt.Sprintf("broadcast:%s", joinCode)
}
