// Package router is the decision core of the engine. Every incoming turn
// passes through one ladder: quiz capture, command parse, tool dispatch,
// autodetect, and finally the model with memory context. The ladder always
// produces a response; collaborator failures degrade, they never escape.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mentor/pkg/api"
	"mentor/pkg/command"
	"mentor/pkg/config"
	"mentor/pkg/llm"
	"mentor/pkg/memory"
	"mentor/pkg/quiz"
	"mentor/pkg/store"
	"mentor/pkg/tools"
)

// degradedMessage is the fixed reply for a turn the model could not answer.
// It must never depend on the failure, so degraded mode stays predictable.
const degradedMessage = "🤖 I can't reach the tutor model right now. " +
	"You can still use /calc, /u, /stats and /plot, or start a practice " +
	"quiz with /quiz start. Your question was recorded — ask again in a bit."

// Router routes turns to tools, the quiz engine or the model.
type Router struct {
	store    store.Store
	client   llm.Client
	tools    *tools.Registry
	parser   *command.Parser
	memory   *memory.Assembler
	quiz     *quiz.Engine
	settings *config.SystemSettings
	persona  string

	mu    sync.Mutex
	slots map[string]*userSlot
}

// New creates a Router wired to its collaborators. Engine knobs are read
// from the settings snapshot per turn, so live reloads apply cleanly.
func New(st store.Store, client llm.Client, registry *tools.Registry, settings *config.SystemSettings, persona string) *Router {
	return &Router{
		store:    st,
		client:   client,
		tools:    registry,
		parser:   command.NewParser(registry.Has),
		memory:   memory.NewAssembler(st),
		quiz:     quiz.NewEngine(st, client),
		settings: settings,
		persona:  persona,
		slots:    make(map[string]*userSlot),
	}
}

// userSlot serializes turns for one student. A new turn preempts any
// in-flight model call; the preempted turn's result is discarded.
type userSlot struct {
	mu sync.Mutex // serializes turns

	ctl        sync.Mutex // guards generation and cancel
	generation uint64
	cancel     context.CancelFunc

	subject string
	topic   string
	loaded  bool
}

func (s *userSlot) preempt() uint64 {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.generation
}

func (s *userSlot) arm(gen uint64, cancel context.CancelFunc) {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	if gen == s.generation {
		s.cancel = cancel
	}
}

// disarm clears the cancel hook and reports whether gen is still current.
func (s *userSlot) disarm(gen uint64) bool {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	if gen == s.generation {
		s.cancel = nil
		return true
	}
	return false
}

func (r *Router) slot(username string) *userSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[username]
	if !ok {
		s = &userSlot{}
		r.slots[username] = s
	}
	return s
}

// Handle processes one turn and always returns a response. A superseded
// turn (a newer message arrived for the same user) returns an empty
// response that channels must not deliver.
func (r *Router) Handle(ctx context.Context, msg *api.UnifiedMessage) api.Response {
	slot := r.slot(msg.Session.Username)
	gen := slot.preempt()

	slot.mu.Lock()
	defer slot.mu.Unlock()

	return r.handle(ctx, msg, slot, gen)
}

func (r *Router) handle(ctx context.Context, msg *api.UnifiedMessage, slot *userSlot, gen uint64) api.Response {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return api.Response{Text: "🤔 I didn't catch that — say something or try /help.", Source: api.SourceSystem}
	}

	user, err := r.store.GetOrCreateUser(ctx, msg.Session.Username)
	if err != nil {
		slog.Error("Failed to resolve user", "username", msg.Session.Username, "error", err)
		return api.Response{Text: degradedMessage, Source: api.SourceSystem}
	}

	r.loadSlotContext(ctx, slot, user.ID)

	// Quiz capture: while a question is pending, answer and control tokens
	// belong to the quiz, not to the model.
	qs, err := r.store.ActiveQuizSession(ctx, user.ID)
	if err != nil {
		slog.Error("Failed to load quiz session", "user_id", user.ID, "error", err)
		qs = nil
	}
	if qs != nil {
		if resp, handled := r.quizCapture(ctx, user, slot, msg, qs, content); handled {
			return resp
		}
	}

	intent, err := r.parser.Parse(content)
	if err != nil {
		var unknown *command.UnknownCommandError
		if errors.As(err, &unknown) {
			return api.Response{
				Text:   fmt.Sprintf("❓ Unknown command /%s. Try /help.", unknown.Token),
				Source: api.SourceSystem,
			}
		}
		return api.Response{Text: "❓ I couldn't parse that. Try /help.", Source: api.SourceSystem}
	}

	switch it := intent.(type) {
	case command.Help:
		return api.Response{Text: r.helpText(), Source: api.SourceSystem}

	case command.Greeting:
		return r.greet(ctx, user)

	case command.Config:
		return r.applyConfig(ctx, user, slot, it)

	case command.QuizCtl:
		return r.quizControl(ctx, user, slot, msg, content, it)

	case command.ToolCall:
		return r.runTool(ctx, user, slot, msg, content, it.Name, it.Args)

	case command.FreeForm:
		if name, args, ok := tools.Autodetect(it.Text); ok {
			return r.runTool(ctx, user, slot, msg, content, name, args)
		}
		return r.llmTurn(ctx, user, slot, msg, gen, it.Text)
	}

	return api.Response{Text: "❓ I couldn't parse that. Try /help.", Source: api.SourceSystem}
}

// loadSlotContext restores the remembered subject/topic on first contact.
func (r *Router) loadSlotContext(ctx context.Context, slot *userSlot, userID int64) {
	if slot.loaded {
		return
	}
	slot.subject, slot.topic = DefaultSubject, DefaultTopic

	subject, topic, _, ok, err := r.store.LastContext(ctx, userID)
	if err != nil {
		slog.Warn("Failed to load last context", "user_id", userID, "error", err)
	} else if ok {
		if subject != "" {
			slot.subject = subject
		}
		if topic != "" {
			slot.topic = topic
		}
	}
	slot.loaded = true
}

// quizCapture consumes answer/advance/stop tokens while a quiz is active.
// Anything else falls through to the normal ladder.
func (r *Router) quizCapture(ctx context.Context, user *store.User, slot *userSlot, msg *api.UnifiedMessage, qs *store.QuizSession, content string) (api.Response, bool) {
	var (
		text string
		err  error
	)

	switch {
	case quiz.IsStopToken(content):
		text, err = r.quiz.Stop(ctx, qs)
	case quiz.IsAdvanceToken(content):
		cctx, cancel := r.llmContext(ctx)
		text, err = r.quiz.Advance(cctx, qs, slot.subject, slot.topic)
		cancel()
	default:
		if _, ok := quiz.AnswerToken(content); !ok {
			return api.Response{}, false
		}
		var graded bool
		text, graded, err = r.quiz.Answer(ctx, qs, content)
		if err == nil && !graded {
			// informational no-op, not a study turn
			return api.Response{Text: text, Source: api.SourceSystem}, true
		}
	}

	if err != nil {
		slog.Error("Quiz turn failed", "session_id", qs.ID, "error", err)
		return api.Response{Text: "⚠️ The quiz hit a storage problem — try again.", Source: api.SourceSystem}, true
	}
	return r.persistAndRespond(ctx, user, slot, msg, content, text, api.SourceQuiz), true
}

// applyConfig updates the slot and the store, and acks without persisting
// an interaction: config changes are not study turns.
func (r *Router) applyConfig(ctx context.Context, user *store.User, slot *userSlot, cfg command.Config) api.Response {
	if cfg.Value == "" {
		return api.Response{
			Text:   fmt.Sprintf("📚 Current subject: %s · topic: %s", slot.subject, slot.topic),
			Source: api.SourceSystem,
		}
	}

	var text string
	switch cfg.Field {
	case "subject":
		slot.subject = cfg.Value
		slot.topic = DefaultTopic
		text = fmt.Sprintf("📚 Subject set to %s.", slot.subject)
	case "topic":
		slot.topic = cfg.Value
		text = fmt.Sprintf("📖 Topic set to %s (subject: %s).", slot.topic, slot.subject)
	}

	if err := r.store.SetTopic(ctx, user.ID, slot.subject, slot.topic); err != nil {
		slog.Error("Failed to remember topic", "user_id", user.ID, "error", err)
		text += "\n\n⚠️ (setting not saved)"
	}
	return api.Response{Text: text, Source: api.SourceSystem}
}

func (r *Router) quizControl(ctx context.Context, user *store.User, slot *userSlot, msg *api.UnifiedMessage, content string, ctl command.QuizCtl) api.Response {
	switch ctl.Action {
	case command.ActionStart:
		topicRec, err := r.store.GetOrCreateTopic(ctx, slot.subject, slot.topic)
		if err != nil {
			slog.Error("Failed to resolve topic", "error", err)
			return api.Response{Text: "⚠️ The quiz hit a storage problem — try again.", Source: api.SourceSystem}
		}
		cctx, cancel := r.llmContext(ctx)
		text, err := r.quiz.Start(cctx, user.ID, topicRec.ID, slot.subject, slot.topic,
			r.settings.Current().QuizQuestionLimit)
		cancel()
		if err != nil {
			slog.Error("Failed to start quiz", "user_id", user.ID, "error", err)
			return api.Response{Text: "⚠️ The quiz hit a storage problem — try again.", Source: api.SourceSystem}
		}
		return r.persistAndRespond(ctx, user, slot, msg, content, text, api.SourceQuiz)

	case command.ActionNext, command.ActionStop:
		qs, err := r.store.ActiveQuizSession(ctx, user.ID)
		if err != nil {
			slog.Error("Failed to load quiz session", "user_id", user.ID, "error", err)
			return api.Response{Text: "⚠️ The quiz hit a storage problem — try again.", Source: api.SourceSystem}
		}
		if qs == nil {
			return api.Response{Text: "ℹ️ No quiz is running. Start one with /quiz start.", Source: api.SourceSystem}
		}

		var text string
		if ctl.Action == command.ActionStop {
			text, err = r.quiz.Stop(ctx, qs)
		} else {
			cctx, cancel := r.llmContext(ctx)
			text, err = r.quiz.Advance(cctx, qs, slot.subject, slot.topic)
			cancel()
		}
		if err != nil {
			slog.Error("Quiz turn failed", "session_id", qs.ID, "error", err)
			return api.Response{Text: "⚠️ The quiz hit a storage problem — try again.", Source: api.SourceSystem}
		}
		return r.persistAndRespond(ctx, user, slot, msg, content, text, api.SourceQuiz)
	}

	return api.Response{Text: "ℹ️ Quiz controls: /quiz start, /quiz next, /quiz stop.", Source: api.SourceSystem}
}

// runTool dispatches a tool and persists the turn, errors included: a
// failed tool call is still a study turn worth remembering.
func (r *Router) runTool(ctx context.Context, user *store.User, slot *userSlot, msg *api.UnifiedMessage, content, name, args string) api.Response {
	out, err := r.tools.Dispatch(name, args)
	if err != nil {
		out = "⚠️ " + toolErrorText(err)
	}
	return r.persistAndRespond(ctx, user, slot, msg, content, out, api.SourceTool)
}

func toolErrorText(err error) string {
	var te *tools.Error
	if errors.As(err, &te) && te.Err != nil {
		switch te.Kind {
		case tools.KindInvalidArguments:
			return fmt.Sprintf("%s: %v", te.Tool, te.Err)
		case tools.KindComputationFailed:
			return fmt.Sprintf("%s failed: %v", te.Tool, te.Err)
		}
	}
	return err.Error()
}

// llmTurn is the final rung: memory assembly, prompt build, model call.
func (r *Router) llmTurn(ctx context.Context, user *store.User, slot *userSlot, msg *api.UnifiedMessage, gen uint64, text string) api.Response {
	// infer a subject from vocabulary only while none is set
	if slot.subject == DefaultSubject {
		if subj, top, ok := GuessSubject(text); ok {
			slot.subject, slot.topic = subj, top
			if err := r.store.SetTopic(ctx, user.ID, subj, top); err != nil {
				slog.Warn("Failed to remember guessed topic", "user_id", user.ID, "error", err)
			}
			slog.Info("Guessed subject from question", "user_id", user.ID, "subject", subj, "topic", top)
		}
	}

	topicRec, err := r.store.GetOrCreateTopic(ctx, slot.subject, slot.topic)
	if err != nil {
		slog.Error("Failed to resolve topic", "error", err)
		return api.Response{Text: degradedMessage, Source: api.SourceFallback}
	}

	sys := r.settings.Current()
	k := 0
	if msg.UseMemory {
		k = sys.MemoryWindow
	}
	snippets, err := r.memory.Assemble(ctx, user.ID, topicRec.ID, k, sys.MemoryMaxChars)
	if err != nil {
		slog.Warn("Memory assembly failed, continuing without context", "user_id", user.ID, "error", err)
		snippets = nil
	}

	prompt := BuildPrompt(r.persona, user.Name, slot.subject, slot.topic,
		msg.Mode, sys.ResponseSize, snippets, text)

	cctx, cancel := r.llmContext(ctx)
	slot.arm(gen, cancel)
	answer, err := r.client.Complete(cctx, prompt)
	current := slot.disarm(gen)
	cancel()

	if !current {
		// a newer turn preempted this one; its result must not be applied
		slog.Info("Turn superseded, discarding result", "user_id", user.ID)
		return api.Response{}
	}

	if err != nil {
		slog.Warn("Model call failed, answering degraded", "user_id", user.ID, "error", err)
		return r.persistTurn(ctx, user, topicRec.ID, msg, text, degradedMessage, api.SourceFallback)
	}
	return r.persistTurn(ctx, user, topicRec.ID, msg, text, answer, api.SourceLLM)
}

func (r *Router) llmContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(r.settings.Current().LLMTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Minute
	}
	return context.WithTimeout(ctx, timeout)
}

// persistAndRespond resolves the slot's topic, then persists the turn.
func (r *Router) persistAndRespond(ctx context.Context, user *store.User, slot *userSlot, msg *api.UnifiedMessage, input, output string, source api.Source) api.Response {
	topicRec, err := r.store.GetOrCreateTopic(ctx, slot.subject, slot.topic)
	if err != nil {
		slog.Error("Failed to resolve topic", "error", err)
		return api.Response{
			Text:   output + "\n\n⚠️ (history not saved)",
			Source: source,
		}
	}
	return r.persistTurn(ctx, user, topicRec.ID, msg, input, output, source)
}

// persistTurn appends the interaction. A store failure is logged and
// flagged in the reply; the student still gets their answer.
func (r *Router) persistTurn(ctx context.Context, user *store.User, topicID int64, msg *api.UnifiedMessage, input, output string, source api.Source) api.Response {
	it := &store.Interaction{
		ID:      uuid.NewString(),
		UserID:  user.ID,
		TopicID: topicID,
		Mode:    string(msg.Mode),
		Input:   input,
		Output:  output,
		Source:  string(source),
	}
	if err := r.store.AppendInteraction(ctx, it); err != nil {
		slog.Error("Failed to persist interaction", "user_id", user.ID, "error", err)
		output += "\n\n⚠️ (history not saved)"
	}
	return api.Response{Text: output, Source: source}
}

// greet produces the welcome-back message with the last persisted context.
func (r *Router) greet(ctx context.Context, user *store.User) api.Response {
	subject, topic, lastInput, ok, err := r.store.LastContext(ctx, user.ID)
	if err != nil {
		slog.Warn("Failed to load last context", "user_id", user.ID, "error", err)
	}
	if err != nil || !ok {
		return api.Response{
			Text: fmt.Sprintf("👋 Hi %s! Set a subject with /subject, or just ask me something. /help lists everything I can do.",
				user.Name),
			Source: api.SourceSystem,
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👋 Welcome back, %s!", user.Name)
	if subject != "" && subject != DefaultSubject {
		fmt.Fprintf(&b, " Last time you were on %s", subject)
		if topic != "" && topic != DefaultTopic {
			fmt.Fprintf(&b, " · %s", topic)
		}
		b.WriteString(".")
	}
	if lastInput != "" {
		fmt.Fprintf(&b, "\nYour last question was: %q", lastInput)
	}

	if stats, err := r.store.TopicStats(ctx, user.ID); err == nil && len(stats) > 0 {
		b.WriteString("\n\nYour topics so far:")
		for i, st := range stats {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "\n• %s · %s — %d interactions", st.Subject, st.Topic, st.Interactions)
			if st.QuizAsked > 0 {
				fmt.Fprintf(&b, ", quiz accuracy %.0f%%", st.Accuracy()*100)
			}
		}
	}

	return api.Response{Text: b.String(), Source: api.SourceSystem}
}

func (r *Router) helpText() string {
	var b strings.Builder
	b.WriteString("🧭 Commands:\n")
	b.WriteString("/subject <name> — set your subject\n")
	b.WriteString("/topic <name> — set the topic within it\n")
	b.WriteString("/quiz start|next|stop — practice questions\n")
	b.WriteString("/start — welcome message with your last context\n")
	b.WriteString("/help — this list\n\nTools:\n")

	all := r.tools.GetAll()
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	for _, t := range all {
		b.WriteString(t.Describe())
		b.WriteString("\n")
	}
	b.WriteString("\nAnything else goes to the tutor. 🎓")
	return b.String()
}
