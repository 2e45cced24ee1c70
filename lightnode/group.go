package lightnode

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warpgate-labs/xcs-portal/entities"
)

const DefaultCallTimeout = 30 * time.Second

// NodeClient is the per-node surface the group fans out over.
type NodeClient interface {
	Identity() string
	SendMessage(ctx context.Context, request *entities.SendMessageRequest) (*entities.SendMessageResult, error)
	ReceiveMessage(ctx context.Context, messageID string) (*entities.ReceiveMessageResult, error)
	QueryHealth(ctx context.Context) (*entities.HealthResult, error)
	QueryPeers(ctx context.Context) (*entities.PeersResult, error)
}

// BroadcastResult is one member's outcome within a broadcast. Position in
// the result slice follows membership order at dispatch time, never arrival
// order.
type BroadcastResult struct {
	Identity string
	Result   *entities.SendMessageResult
	Err      error
}

// HealthReport is one member's outcome of a health probe.
type HealthReport struct {
	Identity string
	Result   *entities.HealthResult
	Err      error
}

// Group fans requests out to a set of lightnodes and merges their responses.
// Membership never shrinks on failure; a node that errors stays a member for
// future calls.
type Group struct {
	mu          sync.RWMutex
	order       []string
	members     map[string]NodeClient
	callTimeout time.Duration
	logger      *logrus.Entry
}

func NewGroup(clients []NodeClient, callTimeout time.Duration, logger *logrus.Entry) *Group {
	if callTimeout == 0 {
		callTimeout = DefaultCallTimeout
	}
	g := &Group{
		members:     map[string]NodeClient{},
		callTimeout: callTimeout,
		logger:      logger,
	}
	for _, client := range clients {
		g.Add(client)
	}
	return g
}

// NewGroupFromMultiAddresses builds a group of HTTP clients, one per
// multi-address.
func NewGroupFromMultiAddresses(multiAddresses []string, callTimeout time.Duration, logger *logrus.Entry) *Group {
	clients := make([]NodeClient, 0, len(multiAddresses))
	for _, multiAddress := range multiAddresses {
		clients = append(clients, NewClient(multiAddress, "", callTimeout))
	}
	return NewGroup(clients, callTimeout, logger)
}

// Add registers a member. Re-adding an identity replaces the prior client
// but keeps its position in membership order.
func (g *Group) Add(client NodeClient) {
	g.mu.Lock()
	defer g.mu.Unlock()
	identity := client.Identity()
	if _, ok := g.members[identity]; !ok {
		g.order = append(g.order, identity)
	}
	g.members[identity] = client
}

func (g *Group) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// Members returns the membership snapshot in insertion order.
func (g *Group) Members() []NodeClient {
	g.mu.RLock()
	defer g.mu.RUnlock()
	members := make([]NodeClient, 0, len(g.order))
	for _, identity := range g.order {
		members = append(members, g.members[identity])
	}
	return members
}

// Broadcast issues the request to every member concurrently. Each member is
// an independent failure domain: one node's error or timeout never aborts
// the others, and a hung node costs at most the per-call timeout. The merged
// result holds one entry per member in membership order. Zero successful
// members fails the call with ErrQuorumUnavailable; a single success is
// enough — true signature-quorum checking belongs to the coordinator.
func (g *Group) Broadcast(ctx context.Context, request *entities.SendMessageRequest) ([]BroadcastResult, error) {
	members := g.Members()
	results := make([]BroadcastResult, len(members))

	var wg sync.WaitGroup
	for i, member := range members {
		wg.Add(1)
		go func(i int, member NodeClient) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
			defer cancel()
			result, err := member.SendMessage(callCtx, request)
			if err != nil && g.logger != nil {
				g.logger.Warnf("broadcast to %v failed: %v", member.Identity(), err)
			}
			results[i] = BroadcastResult{Identity: member.Identity(), Result: result, Err: err}
		}(i, member)
	}
	wg.Wait()

	successes := 0
	for _, result := range results {
		if result.Err == nil {
			successes++
		}
	}
	if successes == 0 {
		return results, ErrQuorumUnavailable
	}
	return results, nil
}

// PollFirstAvailable queries members sequentially for any of the given
// messageIDs until one returns a ready value. Sequential on purpose: this
// fetches a single value and must not hammer the whole group. Returns
// ErrNotReady when at least one node answered "not yet", and
// ErrQuorumUnavailable when every call failed outright. The caller's ctx
// carries the overall deadline; each node call gets its own timeout.
func (g *Group) PollFirstAvailable(ctx context.Context, messageIDs []string) (string, error) {
	notReady := false
	for _, member := range g.Members() {
		for _, messageID := range messageIDs {
			if err := ctx.Err(); err != nil {
				return "", &TransportError{Node: member.Identity(), Err: err}
			}
			callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
			result, err := member.ReceiveMessage(callCtx, messageID)
			cancel()
			if err != nil {
				if errors.Is(err, ErrNotReady) {
					notReady = true
				} else if g.logger != nil {
					g.logger.Warnf("receiveMessage %v from %v failed: %v", messageID, member.Identity(), err)
				}
				continue
			}
			if len(result.Values) == 0 {
				notReady = true
				continue
			}
			return result.Values[0].Value, nil
		}
	}
	if notReady {
		return "", ErrNotReady
	}
	return "", ErrQuorumUnavailable
}

// QueryHealth probes every member concurrently. Opportunistic diagnostics;
// failures are recorded per node, never raised.
func (g *Group) QueryHealth(ctx context.Context) []HealthReport {
	members := g.Members()
	reports := make([]HealthReport, len(members))

	var wg sync.WaitGroup
	for i, member := range members {
		wg.Add(1)
		go func(i int, member NodeClient) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
			defer cancel()
			result, err := member.QueryHealth(callCtx)
			reports[i] = HealthReport{Identity: member.Identity(), Result: result, Err: err}
		}(i, member)
	}
	wg.Wait()
	return reports
}

// Bootstrap asks the current members for their peers and adds any newly
// discovered lightnodes. Succeeds if at least one member answered.
func (g *Group) Bootstrap(ctx context.Context) error {
	var lastErr error
	success := false
	for _, member := range g.Members() {
		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		peers, err := member.QueryPeers(callCtx)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		success = true
		for _, multiAddress := range peers.Peers {
			if _, ok := g.member(IdentityFromMultiAddress(multiAddress)); ok {
				continue
			}
			g.Add(NewClient(multiAddress, "", g.callTimeout))
		}
	}
	if !success {
		if lastErr != nil {
			return lastErr
		}
		return ErrQuorumUnavailable
	}
	return nil
}

func (g *Group) member(identity string) (NodeClient, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	client, ok := g.members[identity]
	return client, ok
}
