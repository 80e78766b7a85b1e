package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"recipebook/internal/config"
	"recipebook/internal/recipeapi"
	"recipebook/internal/store"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeAdd
	modeEdit
	modePlan
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	selStyle   = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

type Model struct {
	store    *store.Store
	cfg      config.Config
	cursor   int
	mode     mode
	search   textinput.Model
	form     []textinput.Model
	field    int
	planDay  recipeapi.Day
	planID   int64
	spin     spinner.Model
	spinning bool
	status   string
}

func Run(st *store.Store, cfg config.Config) error {
	program := tea.NewProgram(New(st, cfg))
	_, err := program.Run()
	return err
}

// New builds the root model. Its Init starts the first load of every feed.
func New(st *store.Store, cfg config.Config) Model {
	form := make([]textinput.Model, 0, len(store.Fields()))
	for _, f := range store.Fields() {
		form = append(form, newInput(fieldPlaceholder(f), 0))
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = dimStyle

	return Model{
		store:    st,
		cfg:      cfg,
		mode:     modeList,
		search:   newInput("Search by title", 128),
		form:     form,
		spin:     sp,
		spinning: true,
		status: fmt.Sprintf("Press '%s' to add, '%s' to search, '%s' to plan a meal.",
			cfg.Keys.Add, cfg.Keys.Search, cfg.Keys.Plan),
	}
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.store.Init(), m.spin.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		if _, ok := m.store.PendingDelete(); ok {
			m, cmd = m.updateDeleteConfirm(msg.String())
		} else {
			m, cmd = m.handleKey(msg)
		}
		return m.afterStore(cmd)
	case tea.WindowSizeMsg:
		width := max(20, msg.Width/2-10)
		m.search.Width = width
		for i := range m.form {
			m.form[i].Width = width
		}
		return m, nil
	case spinner.TickMsg:
		if !m.store.Loading() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	cmd := m.store.Apply(msg)
	m = m.settle(msg)
	return m.afterStore(cmd)
}

// afterStore keeps the cursor and spinner in step with the store after an
// intent or a result.
func (m Model) afterStore(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.cursor = clampCursor(m.cursor, len(m.store.Recipes()))
	if m.store.Loading() && !m.spinning {
		m.spinning = true
		cmd = tea.Batch(cmd, m.spin.Tick)
	}
	return m, cmd
}

func (m Model) settle(msg tea.Msg) Model {
	switch msg := msg.(type) {
	case store.RecipeCreatedMsg:
		if msg.Err == nil {
			m.status = fmt.Sprintf("Added %q", msg.Recipe.Title)
			if m.mode == modeAdd {
				m = m.closeForm()
			}
		}
	case store.RecipeUpdatedMsg:
		if msg.Err == nil {
			m.status = fmt.Sprintf("Saved %q", msg.Recipe.Title)
		}
	case store.RecipeDeletedMsg:
		if msg.Err == nil {
			m.status = "Deleted recipe"
		}
	case store.MealPlannedMsg:
		if msg.Err == nil {
			m.status = fmt.Sprintf("Planned for %s", msg.Day)
		}
	}
	if m.mode == modeEdit {
		if _, editing := m.store.EditingID(); !editing {
			m = m.closeForm()
		}
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.updateSearchMode(msg)
	case modeAdd, modeEdit:
		return m.updateFormMode(msg)
	case modePlan:
		return m.updatePlanMode(msg.String())
	}
	return m.updateListMode(msg.String())
}

func (m Model) updateListMode(key string) (Model, tea.Cmd) {
	n := len(m.store.Recipes())
	switch key {
	case m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, n)
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, n)
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.status = fmt.Sprintf("Type to filter by title, %s to keep, %s to clear", m.cfg.Keys.Confirm, m.cfg.Keys.Cancel)
		return m, m.search.Focus()
	case m.cfg.Keys.Add:
		m.status = fmt.Sprintf("New recipe: %s/%s to move, %s on the last field to save, %s to leave",
			m.cfg.Keys.Next, m.cfg.Keys.Prev, m.cfg.Keys.Confirm, m.cfg.Keys.Cancel)
		return m.openForm(modeAdd, m.store.AddDraft())
	case m.cfg.Keys.Edit:
		r, ok := m.selected()
		if !ok {
			m.status = "No recipe to edit"
			return m, nil
		}
		if !m.store.StartEdit(r.ID) {
			return m, nil
		}
		m.status = fmt.Sprintf("Editing %q: %s on the last field to save, %s to cancel", r.Title, m.cfg.Keys.Confirm, m.cfg.Keys.Cancel)
		return m.openForm(modeEdit, m.store.EditDraft())
	case m.cfg.Keys.Delete:
		r, ok := m.selected()
		if !ok {
			m.status = "No recipe to delete"
			return m, nil
		}
		if m.store.BeginDelete(r.ID) {
			m.status = fmt.Sprintf("Delete %q? y/n", r.Title)
		}
	case m.cfg.Keys.Plan:
		r, ok := m.selected()
		if !ok {
			m.status = "No recipe to plan"
			return m, nil
		}
		m.mode = modePlan
		m.planDay = recipeapi.Monday
		m.planID = r.ID
		m.status = fmt.Sprintf("Plan %q: left/right or 1-7 to pick a day, %s to confirm", r.Title, m.cfg.Keys.Confirm)
	case m.cfg.Keys.Reload:
		m.status = "Reloading"
		return m, m.store.Reload()
	case m.cfg.Keys.Dismiss:
		m.store.DismissError()
	}
	return m, nil
}

func (m Model) updateSearchMode(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Confirm:
		m.search.Blur()
		m.mode = modeList
		m.status = ""
		return m, nil
	case m.cfg.Keys.Cancel:
		m.search.SetValue("")
		m.search.Blur()
		m.mode = modeList
		m.cursor = 0
		m.status = "Search cleared"
		return m, m.store.SetSearch("")
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.store.SearchTerm() {
		m.cursor = 0
	}
	return m, tea.Batch(cmd, m.store.SetSearch(m.search.Value()))
}

func (m Model) updateFormMode(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		if m.mode == modeEdit {
			m.store.CancelEdit()
			m.status = "Edit cancelled"
		} else {
			m.status = "Draft kept"
		}
		return m.closeForm(), nil
	case m.cfg.Keys.Next, "down":
		m.field = wrapIndex(m.field+1, len(m.form))
		return m.focusField()
	case m.cfg.Keys.Prev, "up":
		m.field = wrapIndex(m.field-1, len(m.form))
		return m.focusField()
	case m.cfg.Keys.Confirm:
		if m.field < len(m.form)-1 {
			m.field++
			return m.focusField()
		}
		var cmd tea.Cmd
		if m.mode == modeAdd {
			cmd = m.store.SubmitAdd()
		} else {
			cmd = m.store.SubmitEdit()
		}
		if cmd != nil {
			m.status = "Saving"
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.form[m.field], cmd = m.form[m.field].Update(msg)
	f, v := store.Fields()[m.field], m.form[m.field].Value()
	if m.mode == modeAdd {
		m.store.SetAddField(f, v)
	} else {
		m.store.SetEditField(f, v)
	}
	return m, cmd
}

func (m Model) updatePlanMode(key string) (Model, tea.Cmd) {
	days := recipeapi.Days()
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.status = "Plan cancelled"
	case m.cfg.Keys.Next, "right", "l":
		m.planDay = days[wrapIndex(int(m.planDay)+1, len(days))]
	case m.cfg.Keys.Prev, "left", "h":
		m.planDay = days[wrapIndex(int(m.planDay)-1, len(days))]
	case m.cfg.Keys.Confirm:
		m.mode = modeList
		r, ok := m.loaded(m.planID)
		if !ok {
			m.status = "Recipe is no longer loaded, nothing planned"
			return m, nil
		}
		m.status = fmt.Sprintf("Planning %q for %s", r.Title, m.planDay)
		return m, m.store.PlanMeal(m.planDay, r.ID)
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(days) {
			m.planDay = days[n-1]
		}
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.store.ResolveDelete(false)
		m.status = "Delete cancelled"
	case "y", "Y":
		m.status = "Deleting"
		return m, m.store.ResolveDelete(true)
	}
	return m, nil
}

func (m Model) openForm(md mode, d store.Draft) (Model, tea.Cmd) {
	m.mode = md
	m.field = 0
	for i, f := range store.Fields() {
		m.form[i].SetValue(d.Get(f))
		m.form[i].CursorEnd()
	}
	return m.focusField()
}

func (m Model) focusField() (Model, tea.Cmd) {
	var cmd tea.Cmd
	for i := range m.form {
		if i == m.field {
			cmd = m.form[i].Focus()
		} else {
			m.form[i].Blur()
		}
	}
	return m, cmd
}

func (m Model) closeForm() Model {
	for i := range m.form {
		m.form[i].Blur()
	}
	m.mode = modeList
	m.field = 0
	return m
}

func (m Model) selected() (recipeapi.Recipe, bool) {
	recipes := m.store.Recipes()
	if len(recipes) == 0 {
		return recipeapi.Recipe{}, false
	}
	return recipes[clampCursor(m.cursor, len(recipes))], true
}

func (m Model) loaded(id int64) (recipeapi.Recipe, bool) {
	for _, r := range m.store.Recipes() {
		if r.ID == id {
			return r, true
		}
	}
	return recipeapi.Recipe{}, false
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Recipe Book"))
	b.WriteString("\n\n")

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderSearch(),
		"",
		m.renderRecipes(),
		m.renderDetail(),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderMealPlan(),
		"",
		m.renderShoppingList(),
		"",
		m.renderUsage(),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxStyle.Render(left), boxStyle.Render(right)))
	b.WriteString("\n")

	switch m.mode {
	case modeAdd, modeEdit:
		b.WriteString(m.renderForm())
		b.WriteString("\n")
	case modePlan:
		b.WriteString(m.renderDayPicker())
		b.WriteString("\n")
	}

	if e := m.store.Err(); e != "" {
		b.WriteString(errStyle.Render("Error: " + e))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  (%s to dismiss)", m.cfg.Keys.Dismiss)))
		b.WriteString("\n")
	}
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(renderHelp(m.cfg.Keys, m.mode)))

	return b.String()
}

func renderHelp(k config.Keymap, md mode) string {
	switch md {
	case modeSearch:
		return fmt.Sprintf("type to search • %s keep • %s clear", k.Confirm, k.Cancel)
	case modeAdd, modeEdit:
		return fmt.Sprintf("%s/%s field • %s next/save • %s leave", k.Next, k.Prev, k.Confirm, k.Cancel)
	case modePlan:
		return fmt.Sprintf("left/right or 1-7 day • %s plan • %s cancel", k.Confirm, k.Cancel)
	}
	return fmt.Sprintf("%s/%s move • %s search • %s add • %s edit • %s delete • %s plan • %s reload • %s dismiss • %s quit",
		k.Up, k.Down, k.Search, k.Add, k.Edit, k.Delete, k.Plan, k.Reload, k.Dismiss, k.Quit)
}

func (m Model) renderSearch() string {
	if m.mode == modeSearch {
		return "Search: " + m.search.View()
	}
	return "Search: " + dimStyle.Render(emptyPlaceholder(m.store.SearchTerm()))
}

func (m Model) renderRecipes() string {
	var b strings.Builder
	b.WriteString(headStyle.Render("Recipes"))
	if m.store.Loading() {
		b.WriteString(" " + m.spin.View() + dimStyle.Render("loading"))
	}
	b.WriteString("\n")

	recipes := m.store.Recipes()
	if len(recipes) == 0 {
		if term := strings.TrimSpace(m.store.SearchTerm()); term != "" {
			b.WriteString(dimStyle.Render(fmt.Sprintf("No recipes match %q", term)))
		} else {
			b.WriteString(dimStyle.Render(fmt.Sprintf("No recipes yet. Press '%s' to add one.", m.cfg.Keys.Add)))
		}
		b.WriteString("\n")
		return b.String()
	}

	cur := clampCursor(m.cursor, len(recipes))
	for i, r := range recipes {
		line := fmt.Sprintf("  %s", r.Title)
		if i == cur {
			line = selStyle.Render(fmt.Sprintf("> %s", r.Title))
		}
		if id, editing := m.store.EditingID(); editing && id == r.ID {
			line += dimStyle.Render(" (editing)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderDetail() string {
	r, ok := m.selected()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Title       : %s\n", r.Title))
	b.WriteString(fmt.Sprintf("Description : %s\n", emptyPlaceholder(r.Description)))
	b.WriteString(fmt.Sprintf("Ingredients : %s\n", emptyPlaceholder(store.JoinIngredients(r.Ingredients))))
	return b.String()
}

func (m Model) renderMealPlan() string {
	var b strings.Builder
	b.WriteString(headStyle.Render("Meal plan"))
	b.WriteString("\n")
	plan := m.store.MealPlan()
	for _, d := range recipeapi.Days() {
		title := "-"
		if r, ok := plan[d]; ok {
			title = r.Title
		}
		b.WriteString(fmt.Sprintf("%-9s : %s\n", d, title))
	}
	return b.String()
}

func (m Model) renderShoppingList() string {
	var b strings.Builder
	b.WriteString(headStyle.Render("Shopping list"))
	b.WriteString("\n")
	items := m.store.ShoppingList()
	if len(items) == 0 {
		b.WriteString(dimStyle.Render("(empty)"))
		b.WriteString("\n")
	}
	for _, item := range items {
		b.WriteString("• " + item + "\n")
	}
	return b.String()
}

func (m Model) renderUsage() string {
	var b strings.Builder
	b.WriteString(headStyle.Render("Ingredient usage"))
	b.WriteString("\n")
	usage := m.store.IngredientUsage()
	if len(usage) == 0 {
		b.WriteString(dimStyle.Render("(empty)"))
		b.WriteString("\n")
		return b.String()
	}
	names := make([]string, 0, len(usage))
	for name := range usage {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if usage[names[i]] != usage[names[j]] {
			return usage[names[i]] > usage[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		b.WriteString(fmt.Sprintf("%-16s x%d\n", name, usage[name]))
	}
	return b.String()
}

func (m Model) renderForm() string {
	var b strings.Builder
	if id, editing := m.store.EditingID(); m.mode == modeEdit && editing {
		b.WriteString(headStyle.Render(fmt.Sprintf("Edit recipe #%d", id)))
	} else {
		b.WriteString(headStyle.Render("New recipe"))
	}
	b.WriteString("\n")
	for i, f := range store.Fields() {
		prefix := " "
		if i == m.field {
			prefix = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-12s : %s\n", prefix, f, m.form[i].View()))
	}
	return b.String()
}

func (m Model) renderDayPicker() string {
	parts := make([]string, 0, 7)
	for _, d := range recipeapi.Days() {
		if d == m.planDay {
			parts = append(parts, selStyle.Render("["+d.String()+"]"))
		} else {
			parts = append(parts, d.String())
		}
	}
	return "Day: " + strings.Join(parts, " ")
}

func fieldPlaceholder(f store.Field) string {
	switch f {
	case store.FieldTitle:
		return "Title (required)"
	case store.FieldIngredients:
		return "Ingredients, comma separated"
	default:
		return "Description"
	}
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
