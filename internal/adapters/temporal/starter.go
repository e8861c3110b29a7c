// Package temporal starts redemption workflows on a Temporal cluster.
package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/workflows"
)

// Starter implements ports.RedemptionStarter.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a Starter that schedules work on taskQueue.
func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// Dial connects to the cluster at hostPort.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{HostPort: hostPort, Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("temporal dial: %w", err)
	}
	return c, nil
}

// DialLazy returns a client that connects on first use, so a process can
// start while the cluster is unreachable.
func DialLazy(hostPort, namespace string) (client.Client, error) {
	c, err := client.NewLazyClient(client.Options{HostPort: hostPort, Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("temporal client: %w", err)
	}
	return c, nil
}

// WorkflowID is the id a redemption's workflow runs under. Starting the same
// redemption twice is rejected by the cluster.
func WorkflowID(redemptionID string) string {
	return "gift-card-redemption-" + redemptionID
}

// StartRedemption schedules GiftCardRedemptionWorkflow without waiting for it.
func (s *Starter) StartRedemption(ctx context.Context, r *domain.Redemption) error {
	opts := client.StartWorkflowOptions{
		ID:                    WorkflowID(r.ID),
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	_, err := s.client.ExecuteWorkflow(ctx, opts, workflows.GiftCardRedemptionWorkflow, workflows.RedemptionInput{
		RedemptionID: r.ID,
		UserID:       r.UserID,
		Brand:        string(r.Brand),
		Cost:         r.Cost,
	})
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	return nil
}
