package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shopping-planner/internal/auth"
	"shopping-planner/internal/clipper"
	"shopping-planner/internal/config"
	"shopping-planner/internal/metrics"
	"shopping-planner/internal/planner"
	"shopping-planner/internal/recipe"
	"shopping-planner/internal/shopping"
	"shopping-planner/internal/storage"
	"shopping-planner/internal/week"
	"shopping-planner/internal/weeksync"
)

const listLimit = 20

// messenger is the part of the Telegram API the bot sends through.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Deps are the services the bot works with. Remote, Recorder, Clipper, Metrics and Sessions
// are optional.
type Deps struct {
	Authority *auth.Authority
	// Device backs the per-chat device stores; every chat is a device of its own.
	Device storage.KV
	// Remote builds the remote store of a chat. The session is its token source.
	Remote   func(session *auth.Session) weeksync.RemoteStore
	Recorder weeksync.Recorder
	Recipes  *recipe.Repository
	Clipper  *clipper.Clipper
	Metrics  *metrics.Store
	Sessions *SessionRepository
}

// Bot wraps the Telegram API and one sync controller per chat.
type Bot struct {
	api        messenger
	botAPI     *tgbotapi.BotAPI
	cfg        *config.Config
	deps       Deps
	summarizer *shopping.Summarizer
	now        func() time.Time

	mu      sync.Mutex
	chats   map[int64]*chat
	closing bool
	// inflight tracks messages being processed so shutdown can wait for them.
	inflight sync.WaitGroup
}

// chat is the state of one conversation. mu serializes its commands.
type chat struct {
	mu      sync.Mutex
	id      int64
	started bool
	session *auth.Session
	ctrl    *weeksync.Controller
	index   int
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	webhookURL := cfg.TelegramWebhookURL
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	b := newBot(api, cfg, deps)
	b.botAPI = api
	return b, nil
}

func newBot(api messenger, cfg *config.Config, deps Deps) *Bot {
	return &Bot{
		api:        api,
		cfg:        cfg,
		deps:       deps,
		summarizer: shopping.NewSummarizer(cfg.Collation),
		now:        time.Now,
		chats:      make(map[int64]*chat),
	}
}

// RegisterHandlers registers the webhook handler with mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.botAPI.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}
	b.Dispatch(update.Message)
}

// Dispatch processes msg in the background if its sender is allowed.
func (b *Bot) Dispatch(msg *tgbotapi.Message) {
	if !b.allowed(msg.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", msg.From.ID, msg.From.UserName)
		return
	}

	b.mu.Lock()
	if b.closing {
		b.mu.Unlock()
		return
	}
	b.inflight.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.inflight.Done()
		b.processMessage(msg)
	}()
}

func (b *Bot) allowed(userID int64) bool {
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if userID == id {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	cmd, args := parseCommand(msg.Text)

	// A bare link is clipped like /clip.
	if cmd == "" && (strings.HasPrefix(msg.Text, "http://") || strings.HasPrefix(msg.Text, "https://")) {
		cmd, args = "clip", []string{strings.TrimSpace(msg.Text)}
	}
	if cmd == "clip" {
		b.handleClipRequest(ctx, msg.Chat.ID, args)
		return
	}

	b.reply(msg.Chat.ID, b.execute(ctx, msg.Chat.ID, msg.From.ID, cmd, args))
}

func (b *Bot) reply(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(out); err != nil {
		log.Printf("Failed to send reply to chat %d: %v", chatID, err)
	}
}

// execute runs one command for a chat and returns the Markdown reply.
func (b *Bot) execute(ctx context.Context, chatID, fromID int64, cmd string, args []string) string {
	if cmd == "metrics" {
		if fromID != b.cfg.AdminTelegramID {
			return "⛔ *Access Denied*: Admin only."
		}
		return b.metricsReport(ctx)
	}

	c := b.chat(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := b.start(ctx, c); err != nil {
		return errorText(err)
	}

	var (
		text string
		err  error
	)
	switch cmd {
	case "start", "help":
		text = helpText
	case "login":
		text, err = b.login(ctx, c, args)
	case "logout":
		text, err = b.logout(ctx, c)
	case "week":
		if len(args) == 0 {
			text = b.weekView(ctx, c)
			break
		}
		n, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			return "❌ Usage: /week <n>"
		}
		text, err = b.moveTo(ctx, c, n)
	case "next":
		text, err = b.moveTo(ctx, c, c.index+1)
	case "prev":
		text, err = b.moveTo(ctx, c, c.index-1)
	case "plan":
		text = b.weekView(ctx, c)
	case "list":
		text = formatShoppingList(b.summarizer.Summarize(c.ctrl.Snapshot().Plan))
	case "assign":
		text, err = b.assign(ctx, c, args)
	case "clear":
		text, err = b.clear(ctx, c, args)
	case "add":
		text, err = b.add(ctx, c, args)
	case "toggle":
		text, err = b.toggle(ctx, c, args)
	case "remove":
		text, err = b.remove(ctx, c, args)
	case "recipes":
		text, err = b.recipes(ctx, args)
	case "ingredients":
		text, err = b.ingredients(ctx)
	default:
		text = "🤔 Unknown command. Try /help."
	}
	if err != nil {
		return errorText(err)
	}
	return text
}

func errorText(err error) string {
	if errors.Is(err, weeksync.ErrNotHydrated) {
		return "⏳ The plan is still loading, try again in a moment."
	}
	return "❌ " + escape(err.Error())
}

// chat returns the state of chatID, creating an unstarted one on first contact.
func (b *Bot) chat(chatID int64) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.chats[chatID]
	if !ok {
		c = &chat{id: chatID}
		b.chats[chatID] = c
	}
	return c
}

// start restores the chat's sign-in and resolves its week. Callers hold c.mu.
func (b *Bot) start(ctx context.Context, c *chat) error {
	if c.started {
		return nil
	}

	c.session = auth.NewSession(b.deps.Authority)
	c.index = week.Index(b.cfg.BaseWeek, b.now())
	if b.deps.Sessions != nil {
		stored, err := b.deps.Sessions.GetActive(ctx, c.id, b.now())
		if err != nil {
			log.Printf("Warning: failed to load session of chat %d: %v", c.id, err)
		} else if stored != nil {
			if _, err := c.session.SignIn(stored.Token); err != nil {
				log.Printf("Dropping stale session of chat %d: %v", c.id, err)
				_ = b.deps.Sessions.Delete(ctx, c.id)
			} else {
				c.index = stored.WeekIndex
			}
		}
	}

	device := storage.NewDeviceStore(storage.WithPrefix(b.deps.Device, fmt.Sprintf("chat/%d/", c.id)), nil)
	var remote weeksync.RemoteStore
	if b.deps.Remote != nil {
		remote = b.deps.Remote(c.session)
	}
	var opts []weeksync.Option
	if b.cfg.PushDebounce > 0 {
		opts = append(opts, weeksync.WithDebounce(b.cfg.PushDebounce))
	}
	if b.deps.Recorder != nil {
		opts = append(opts, weeksync.WithRecorder(b.deps.Recorder))
	}
	c.ctrl = weeksync.New(device, remote, opts...)

	err := c.ctrl.Bind(ctx, c.session)
	if err == nil {
		err = c.ctrl.SetWeek(ctx, b.keyAt(c.index))
	}
	if err != nil {
		c.ctrl.Close(ctx)
		return err
	}
	c.started = true
	return nil
}

func (b *Bot) keyAt(index int) week.Key {
	return week.KeyOf(week.At(b.cfg.BaseWeek, index))
}

func (b *Bot) weekView(ctx context.Context, c *chat) string {
	v := c.ctrl.Snapshot()
	return formatWeek(c.index, v, b.recipeNames(ctx, v.Plan))
}

// recipeNames looks up the names of the recipes planned in doc.
func (b *Bot) recipeNames(ctx context.Context, doc planner.WeekPlan) map[string]string {
	names := make(map[string]string)
	if b.deps.Recipes == nil {
		return names
	}
	for _, d := range doc {
		for _, m := range planner.Meals {
			id := d.Slot(m).RecipeID
			if id == "" {
				continue
			}
			if _, seen := names[id]; seen {
				continue
			}
			rec, err := b.deps.Recipes.Get(ctx, id)
			if err != nil || rec == nil {
				names[id] = ""
				continue
			}
			names[id] = rec.Name
		}
	}
	return names
}

func (b *Bot) moveTo(ctx context.Context, c *chat, index int) (string, error) {
	if err := c.ctrl.SetWeek(ctx, b.keyAt(index)); err != nil {
		return "", err
	}
	c.index = index
	if c.session.Identity().SignedIn() && b.deps.Sessions != nil {
		if err := b.deps.Sessions.SetWeek(ctx, c.id, index); err != nil {
			log.Printf("Warning: failed to remember week of chat %d: %v", c.id, err)
		}
	}
	return b.weekView(ctx, c), nil
}

func (b *Bot) login(ctx context.Context, c *chat, args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: /login <token>")
	}
	id, err := c.session.SignIn(args[0])
	if err != nil {
		return "", errors.New("invalid or expired token")
	}

	if b.deps.Sessions != nil {
		expires, err := auth.ExpiresAt(args[0])
		if err != nil {
			return "", err
		}
		err = b.deps.Sessions.Save(ctx, ChatSession{
			ChatID:    c.id,
			UserID:    id.UserID,
			Token:     args[0],
			WeekIndex: c.index,
			ExpiresAt: expires,
		})
		if err != nil {
			log.Printf("Warning: failed to persist session of chat %d: %v", c.id, err)
		}
	}
	return fmt.Sprintf("✅ Signed in as *%s*\n\n%s", escape(id.UserID), b.weekView(ctx, c)), nil
}

func (b *Bot) logout(ctx context.Context, c *chat) (string, error) {
	if !c.session.Identity().SignedIn() {
		return "You are not signed in.", nil
	}
	c.session.SignOut()
	if b.deps.Sessions != nil {
		if err := b.deps.Sessions.Delete(ctx, c.id); err != nil {
			log.Printf("Warning: failed to delete session of chat %d: %v", c.id, err)
		}
	}
	return "👋 Signed out. Changes now stay on this chat.", nil
}

func (b *Bot) dayAndMeal(c *chat, args []string) (string, planner.Meal, error) {
	day, err := parseDay(c.ctrl.Snapshot().Week, args[0])
	if err != nil {
		return "", "", err
	}
	meal, ok := planner.ParseMeal(args[1])
	if !ok {
		return "", "", planner.ErrUnknownMeal
	}
	return day, meal, nil
}

func (b *Bot) assign(ctx context.Context, c *chat, args []string) (string, error) {
	if len(args) < 3 {
		return "", errors.New("usage: /assign <day> <meal> <recipe>")
	}
	day, meal, err := b.dayAndMeal(c, args)
	if err != nil {
		return "", err
	}
	rec, err := b.findRecipe(ctx, strings.Join(args[2:], " "))
	if err != nil {
		return "", err
	}
	if err := c.ctrl.AssignRecipe(ctx, day, meal, rec.ID, rec.IngredientLines); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ *%s* planned for %s %s (%d items)", escape(rec.Name), day, meal, len(rec.IngredientLines)), nil
}

// findRecipe matches query against recipe ids first, then names.
func (b *Bot) findRecipe(ctx context.Context, query string) (*recipe.Recipe, error) {
	if b.deps.Recipes == nil {
		return nil, errors.New("no recipe store configured")
	}
	rec, err := b.deps.Recipes.Get(ctx, query)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	found, err := b.deps.Recipes.FindByName(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no recipe matches %q", query)
	}
	return &found[0], nil
}

func (b *Bot) clear(ctx context.Context, c *chat, args []string) (string, error) {
	if len(args) != 2 {
		return "", errors.New("usage: /clear <day> <meal>")
	}
	day, meal, err := b.dayAndMeal(c, args)
	if err != nil {
		return "", err
	}
	if err := c.ctrl.ClearMeal(ctx, day, meal); err != nil {
		return "", err
	}
	return fmt.Sprintf("🧹 Cleared %s %s", day, meal), nil
}

func (b *Bot) add(ctx context.Context, c *chat, args []string) (string, error) {
	if len(args) < 4 {
		return "", errors.New("usage: /add <day> <name> (@vendor) <amount> <unit>")
	}
	day, err := parseDay(c.ctrl.Snapshot().Week, args[0])
	if err != nil {
		return "", err
	}
	name, vendor, amount, unit, err := parseExtra(args[1:])
	if err != nil {
		return "", err
	}
	item, err := c.ctrl.AddExtra(ctx, day, name, vendor, amount, unit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("➕ Added %s %s %s to %s", formatAmount(item.Amount), item.Unit, escape(item.Name), day), nil
}

func (b *Bot) toggle(ctx context.Context, c *chat, args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: /toggle <n>")
	}
	v := c.ctrl.Snapshot()
	it, err := itemAt(v.Week, v.Plan, args[0])
	if err != nil {
		return "", err
	}
	if err := c.ctrl.ToggleItem(ctx, it.Day, it.Item.ID); err != nil {
		return "", err
	}
	if it.Item.Checked {
		return fmt.Sprintf("☐ %s is back on the list", escape(it.Item.Name)), nil
	}
	return fmt.Sprintf("☑ %s checked", escape(it.Item.Name)), nil
}

func (b *Bot) remove(ctx context.Context, c *chat, args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: /remove <n>")
	}
	v := c.ctrl.Snapshot()
	it, err := itemAt(v.Week, v.Plan, args[0])
	if err != nil {
		return "", err
	}
	if err := c.ctrl.RemoveExtra(ctx, it.Day, it.Item.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("🗑 Removed %s", escape(it.Item.Name)), nil
}

func (b *Bot) recipes(ctx context.Context, args []string) (string, error) {
	if b.deps.Recipes == nil {
		return "", errors.New("no recipe store configured")
	}
	var (
		list []recipe.Recipe
		err  error
	)
	if len(args) > 0 {
		list, err = b.deps.Recipes.FindByName(ctx, strings.Join(args, " "), listLimit)
	} else {
		list, err = b.deps.Recipes.List(ctx)
	}
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "📖 No recipes found.", nil
	}

	var sb strings.Builder
	sb.WriteString("📖 *Recipes*\n\n")
	for i, r := range list {
		if i == listLimit {
			fmt.Fprintf(&sb, "_...and %d more_\n", len(list)-listLimit)
			break
		}
		fmt.Fprintf(&sb, "• %s (`%s`, %d items)\n", escape(r.Name), r.ID, len(r.IngredientLines))
	}
	return sb.String(), nil
}

func (b *Bot) ingredients(ctx context.Context) (string, error) {
	if b.deps.Recipes == nil {
		return "", errors.New("no recipe store configured")
	}
	list, err := b.deps.Recipes.ListIngredients(ctx)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "🥕 No ingredients yet.", nil
	}
	var sb strings.Builder
	sb.WriteString("🥕 *Ingredients*\n\n")
	for _, ing := range list {
		sb.WriteString("• " + escape(ing.Label()) + "\n")
	}
	return sb.String(), nil
}

func (b *Bot) handleClipRequest(ctx context.Context, chatID int64, args []string) {
	if b.deps.Clipper == nil || len(args) != 1 {
		b.reply(chatID, "❌ Usage: /clip <url>")
		return
	}

	replyMsg := tgbotapi.NewMessage(chatID, "✂️ *Clipping recipe...*")
	replyMsg.ParseMode = tgbotapi.ModeMarkdown
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	var finalText string
	rec, err := b.deps.Clipper.ClipURL(ctx, args[0])
	if err != nil {
		log.Printf("Error clipping recipe: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Error clipping recipe:*\n```\n%v\n```", safeErr)
	} else {
		finalText = fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*Items:* %d\nPlan it with `/assign <day> <meal> %s`",
			escape(rec.Name), len(rec.IngredientLines), rec.ID)
	}
	edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, finalText)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to edit reply: %v", err)
	}
}

func (b *Bot) metricsReport(ctx context.Context) string {
	if b.deps.Metrics == nil {
		return "❌ Metrics are not enabled."
	}
	summary, err := b.deps.Metrics.GetDailySummary(ctx, 7)
	if err != nil {
		return "❌ Error fetching metrics."
	}

	health := metrics.GetSysHealth(b.cfg.DatabasePath, b.cfg.DeviceStorePath)

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Sync Activity*\n")
	if len(summary) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range summary {
		fmt.Fprintf(&sb, "• *%s* %s: %d ops, %d failed, avg %dms\n", d.Date, d.Operation, d.Total, d.Failures, d.AvgLatencyMS)
	}

	b.mu.Lock()
	chats := len(b.chats)
	b.mu.Unlock()

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Active chats: %d\n", chats)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataSize)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	return sb.String()
}

// Shutdown waits for in-flight messages, then flushes and closes every chat's controller.
func (b *Bot) Shutdown(ctx context.Context) {
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()
	b.inflight.Wait()

	b.mu.Lock()
	chats := make([]*chat, 0, len(b.chats))
	for _, c := range b.chats {
		chats = append(chats, c)
	}
	b.mu.Unlock()

	for _, c := range chats {
		c.mu.Lock()
		if c.started {
			c.ctrl.Close(ctx)
		}
		c.mu.Unlock()
	}
	log.Printf("Flushed %d chat(s)", len(chats))
}
