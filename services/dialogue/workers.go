// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jinterlante1206/LoanFlowLocal/services/bank"
	"github.com/jinterlante1206/LoanFlowLocal/services/nlu"
	"github.com/jinterlante1206/LoanFlowLocal/services/underwriting"
)

// collaboratorTimeout bounds profile/bureau lookups. A slow backend
// degrades the turn, it never hangs it.
const collaboratorTimeout = 5 * time.Second

// Transition is a worker's verdict for one turn: the stage to move to
// and the reply to surface. Re-prompting in place is a self-transition,
// never an empty result.
type Transition struct {
	NextStage Stage
	Message   string
}

// Deps bundles everything the stage workers are allowed to touch.
// Oracle, Consents, Profiles, and Bureau may be nil or unavailable at
// runtime; every worker degrades rather than fails.
type Deps struct {
	Oracle   *nlu.Oracle
	Profiles bank.ProfileService
	Bureau   bank.BureauService
	Consents bank.ConsentRecorder
	Rules    *underwriting.Rules
	Ladder   *RetryLadder
	Logger   *slog.Logger
}

func (d *Deps) log() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

type workerFunc func(ctx context.Context, d *Deps, s *Session, input string) (Transition, error)

// greetingWorker needs no input: it welcomes the user and moves
// straight to the consent ask.
func greetingWorker(ctx context.Context, d *Deps, s *Session, input string) (Transition, error) {
	welcome := d.Ladder.Prompt(ctx, promptMetaShort, 1)
	ask := d.Ladder.Prompt(ctx, promptConsent, 1)
	return Transition{
		NextStage: StageConsent,
		Message:   welcome + "\n\n" + ask,
	}, nil
}

// consentWorker resolves an explicit yes/no before anything else may
// happen. Meta and process questions get a short answer and a re-ask
// without burning a retry attempt; so does an explicit refusal. Only
// unresolved input climbs the ladder, and attempt four offers a human
// handoff without escalating the stage.
func consentWorker(ctx context.Context, d *Deps, s *Session, input string) (Transition, error) {
	intent := nlu.ClassifyIntent(ctx, d.Oracle, input, string(s.Stage))
	if intent.Intent == nlu.IntentMeta || intent.Intent == nlu.IntentProcess {
		answer := intent.Reply
		if answer == "" {
			answer = "I need your permission to process basic loan checks (ID & bureau)."
		}
		ask := d.Ladder.Prompt(ctx, promptConsent, s.Retries(StageConsent)+1)
		return Transition{NextStage: StageConsent, Message: answer + "\n\n" + ask}, nil
	}

	value, resolved := nlu.ExtractConsent(ctx, d.Oracle, input)
	switch {
	case resolved && value:
		s.Slots.Consent = &value
		s.ResetRetries(StageConsent)
		d.recordConsent(ctx, s, input)
		return Transition{
			NextStage: StageCollectCustomerID,
			Message:   "Great — thanks for confirming. Please provide your Customer ID (e.g. CUST001).",
		}, nil
	case resolved && !value:
		s.Slots.Consent = &value
		return Transition{
			NextStage: StageConsent,
			Message:   "Understood. We won't proceed without your consent. If you change your mind, say YES.",
		}, nil
	default:
		attempt := s.IncrementRetries(StageConsent)
		if attempt >= HumanHandoffAttempt {
			return Transition{
				NextStage: StageConsent,
				Message:   "I need a clear YES to proceed. If you are unsure, reply 'help' or 'speak to human'.",
			}, nil
		}
		return Transition{
			NextStage: StageConsent,
			Message:   d.Ladder.Prompt(ctx, promptConsent, attempt),
		}, nil
	}
}

// recordConsent writes the consent audit entry. Best-effort: a failed
// write is logged and the conversation continues.
func (d *Deps) recordConsent(ctx context.Context, s *Session, text string) {
	if d.Consents == nil {
		return
	}
	err := d.Consents.RecordConsent(ctx, bank.ConsentRecord{
		CustomerID:  s.Slots.CustomerID,
		SessionID:   s.ID,
		ConsentText: text,
		Channel:     "chat",
	})
	if err != nil {
		d.log().Warn("Failed to record consent", "session_id", s.ID, "error", err)
	}
}

func customerIDWorker(ctx context.Context, d *Deps, s *Session, input string) (Transition, error) {
	intent := nlu.ClassifyIntent(ctx, d.Oracle, input, string(s.Stage))
	if intent.Intent != nlu.IntentSlotValue {
		answer := intent.Reply
		if answer == "" {
			answer = "I need your Customer ID to fetch your profile."
		}
		return Transition{
			NextStage: StageCollectCustomerID,
			Message:   answer + "\n\nPlease give your Customer ID (e.g., CUST001).",
		}, nil
	}

	id, resolved := nlu.ExtractCustomerID(ctx, d.Oracle, input)
	if !resolved {
		attempt := s.IncrementRetries(StageCollectCustomerID)
		return Transition{
			NextStage: StageCollectCustomerID,
			Message:   d.Ladder.Prompt(ctx, promptCustomerID, attempt),
		}, nil
	}

	s.Slots.CustomerID = id
	s.ResetRetries(StageCollectCustomerID)
	return Transition{
		NextStage: StageCollectAmount,
		Message:   "Customer ID recorded. How much loan amount do you need?",
	}, nil
}

// amountWorker has three outcomes: unparseable, out of product range,
// and valid. The first two stay in place and climb the ladder; only a
// valid amount moves the conversation forward.
func amountWorker(ctx context.Context, d *Deps, s *Session, input string) (Transition, error) {
	intent := nlu.ClassifyIntent(ctx, d.Oracle, input, string(s.Stage))
	if intent.Intent != nlu.IntentSlotValue {
		answer := intent.Reply
		if answer == "" {
			answer = "I need the loan amount to proceed."
		}
		return Transition{
			NextStage: StageCollectAmount,
			Message:   answer + "\n\nPlease tell me the loan amount you want (e.g., 4 lakh).",
		}, nil
	}

	amount, resolved := nlu.ExtractAmount(ctx, d.Oracle, input)
	if !resolved || amount <= 0 {
		attempt := s.IncrementRetries(StageCollectAmount)
		return Transition{
			NextStage: StageCollectAmount,
			Message:   d.Ladder.Prompt(ctx, promptAmountUnclear, attempt),
		}, nil
	}
	if amount > d.Rules.MaxLoanAmount {
		attempt := s.IncrementRetries(StageCollectAmount)
		return Transition{
			NextStage: StageCollectAmount,
			Message:   d.Ladder.Prompt(ctx, promptAmountOutOfRange, attempt),
		}, nil
	}

	s.Slots.RequestedAmount = amount
	s.ResetRetries(StageCollectAmount)
	return Transition{
		NextStage: StageCRMCheck,
		Message:   fmt.Sprintf("Understood — you requested ₹%d. Checking your profile now.", amount),
	}, nil
}

// crmWorker looks up the internal profile. Absence of a record is
// non-fatal: the stage proceeds with a nil profile and lets
// underwriting draw the consequence.
func crmWorker(ctx context.Context, d *Deps, s *Session, input string) (Transition, error) {
	var profile *bank.Profile
	if d.Profiles != nil && s.Slots.CustomerID != "" {
		lookupCtx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
		defer cancel()
		p, err := d.Profiles.GetProfile(lookupCtx, s.Slots.CustomerID)
		switch {
		case err == nil:
			profile = p
		case errors.Is(err, bank.ErrNotFound):
			d.log().Info("No CRM profile", "customer_id", s.Slots.CustomerID)
		default:
			d.log().Warn("CRM lookup failed", "customer_id", s.Slots.CustomerID, "error", err)
		}
	}
	s.Slots.CRMProfile = profile

	msg := "Internal profile lookup complete."
	if profile == nil {
		msg = "No internal profile found; proceeding with available info."
	}
	return Transition{
		NextStage: StageBureauCheck,
		Message:   msg + " Now reviewing credit bureau details.",
	}, nil
}

func bureauWorker(ctx context.Context, d *Deps, s *Session, input string) (Transition, error) {
	var report *bank.BureauReport
	if d.Bureau != nil && s.Slots.CustomerID != "" {
		lookupCtx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
		defer cancel()
		r, err := d.Bureau.GetBureauReport(lookupCtx, s.Slots.CustomerID)
		switch {
		case err == nil:
			report = r
		case errors.Is(err, bank.ErrNotFound):
			d.log().Info("No bureau report", "customer_id", s.Slots.CustomerID)
		default:
			d.log().Warn("Bureau lookup failed", "customer_id", s.Slots.CustomerID, "error", err)
		}
	}
	s.Slots.BureauReport = report

	msg := "Credit bureau review completed."
	if report == nil {
		msg = "No bureau report available; proceeding with limited info."
	}
	return Transition{
		NextStage: StageUnderwriting,
		Message:   msg + " Evaluating eligibility now.",
	}, nil
}

// underwritingWorker runs the pure decision engine over the collected
// facts. A missing rule set is the one internal failure here; it
// escalates rather than guessing a decision.
func underwritingWorker(ctx context.Context, d *Deps, s *Session, input string) (Transition, error) {
	if d.Rules == nil {
		return Transition{}, errors.New("underwriting rules not loaded")
	}
	decision := underwriting.Evaluate(s.Slots.CRMProfile, s.Slots.BureauReport, s.Slots.RequestedAmount, d.Rules)
	s.Slots.UnderwritingResult = &decision
	return Transition{
		NextStage: StageDecision,
		Message:   "Underwriting completed. Preparing final decision.",
	}, nil
}

func decisionWorker(ctx context.Context, d *Deps, s *Session, input string) (Transition, error) {
	result := s.Slots.UnderwritingResult
	if result == nil {
		return Transition{
			NextStage: StageEscalated,
			Message:   "Decision could not be made automatically; escalating to manual review.",
		}, nil
	}

	s.Slots.Decision = result.Decision
	switch result.Decision {
	case underwriting.OutcomeApprove:
		return Transition{
			NextStage: StageCompleted,
			Message:   fmt.Sprintf("Congratulations — your loan has been approved for ₹%d. We will send details shortly.", result.ApprovedAmount),
		}, nil
	case underwriting.OutcomeReject:
		return Transition{
			NextStage: StageCompleted,
			Message:   fmt.Sprintf("Unfortunately your application was declined. Reason: %s", result.Reason),
		}, nil
	default:
		// need_docs and anything unexpected goes to a human.
		return Transition{
			NextStage: StageEscalated,
			Message:   "Your case requires manual review. Our team will contact you.",
		}, nil
	}
}
