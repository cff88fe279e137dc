// Package policy evaluates org invite policy with OPA Rego. Each org may
// override the built-in policy with its own Rego module; a broken override
// falls back to the built-in rules rather than blocking invites.
package policy

import (
	"context"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	membershipdomain "github.com/peteywee/fresh-sub000/internal/membership/domain"
)

const policyPackage = "freshsub.invite"

// Built-in invite policy: an invite may never grant owner, and an inviter may
// not grant a rank above their own.
const defaultRegoPolicy = `package freshsub.invite

default allow = false

allow if {
	input.invite.role != "owner"
	input.inviter.rank >= input.invite.rank
}

deny_reason = "invites may not grant the owner role" if {
	input.invite.role == "owner"
}

deny_reason = "cannot invite above your own role" if {
	input.invite.role != "owner"
	input.inviter.rank < input.invite.rank
}
`

// Decision is the outcome of an invite policy evaluation.
type Decision struct {
	Allow  bool
	Reason string
}

// Evaluator evaluates invite policy for an inviter/invitee role pair.
type Evaluator interface {
	EvaluateInvite(ctx context.Context, orgPolicy string, inviterRole, inviteRole membershipdomain.Role) (*Decision, error)
}

// OPAEvaluator evaluates invite policies using the in-process OPA Rego engine.
type OPAEvaluator struct{}

// NewOPAEvaluator returns an OPA-based invite policy evaluator.
func NewOPAEvaluator() *OPAEvaluator {
	return &OPAEvaluator{}
}

// HealthCheck verifies that the Rego engine can compile and evaluate the
// built-in policy. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	compiler, err := ast.CompileModules(map[string]string{"policy.rego": defaultRegoPolicy})
	if err != nil {
		return fmt.Errorf("compile default policy: %w", err)
	}
	rs, err := rego.New(
		rego.Query("data."+policyPackage+".allow"),
		rego.Compiler(compiler),
		rego.Input(buildInput(membershipdomain.RoleAdmin, membershipdomain.RoleMember)),
	).Eval(ctx)
	if err != nil {
		return fmt.Errorf("eval default policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy query returned no result")
	}
	return nil
}

// EvaluateInvite evaluates the org's invite policy (or the built-in policy if
// orgPolicy is empty) for an inviter granting inviteRole. A policy that fails
// to compile is logged and replaced by the built-in policy.
func (e *OPAEvaluator) EvaluateInvite(ctx context.Context, orgPolicy string, inviterRole, inviteRole membershipdomain.Role) (*Decision, error) {
	src := defaultRegoPolicy
	if orgPolicy != "" {
		src = orgPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"policy.rego": src})
	if err != nil {
		if orgPolicy == "" {
			return nil, fmt.Errorf("compile policy: %w", err)
		}
		log.Printf("invite policy: org override failed to compile, using default: %v", err)
		compiler, err = ast.CompileModules(map[string]string{"policy.rego": defaultRegoPolicy})
		if err != nil {
			return nil, fmt.Errorf("compile policy: %w", err)
		}
	}

	input := buildInput(inviterRole, inviteRole)
	out := &Decision{Allow: false, Reason: "invite not permitted"}

	allowRS, err := rego.New(
		rego.Query("data."+policyPackage+".allow"),
		rego.Compiler(compiler),
		rego.Input(input),
	).Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("eval policy: %w", err)
	}
	if len(allowRS) > 0 && len(allowRS[0].Expressions) > 0 {
		if v, ok := allowRS[0].Expressions[0].Value.(bool); ok {
			out.Allow = v
		}
	}

	reasonRS, err := rego.New(
		rego.Query("data."+policyPackage+".deny_reason"),
		rego.Compiler(compiler),
		rego.Input(input),
	).Eval(ctx)
	if err == nil && len(reasonRS) > 0 && len(reasonRS[0].Expressions) > 0 {
		if v, ok := reasonRS[0].Expressions[0].Value.(string); ok {
			out.Reason = v
		}
	}
	if out.Allow {
		out.Reason = ""
	}
	return out, nil
}

func buildInput(inviterRole, inviteRole membershipdomain.Role) map[string]interface{} {
	return map[string]interface{}{
		"inviter": map[string]interface{}{
			"role": string(inviterRole),
			"rank": membershipdomain.Rank(inviterRole),
		},
		"invite": map[string]interface{}{
			"role": string(inviteRole),
			"rank": membershipdomain.Rank(inviteRole),
		},
	}
}
