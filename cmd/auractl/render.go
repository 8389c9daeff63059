package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"aura-taste/internal/cart"
	"aura-taste/internal/client"
	"aura-taste/internal/lifecycle"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorGold  = lipgloss.Color("#F2B134")
	colorGreen = lipgloss.Color("#3CB371")
	colorRed   = lipgloss.Color("#E74C3C")
	colorMuted = lipgloss.Color("#6B6B6B")
)

var styles = struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	StepCompleted lipgloss.Style
	StepActive    lipgloss.Style
	StepPending   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorGold),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Success: lipgloss.NewStyle().Foreground(colorGreen),
	Warning: lipgloss.NewStyle().Foreground(colorGold),
	Error:   lipgloss.NewStyle().Foreground(colorRed),

	StepCompleted: lipgloss.NewStyle().SetString("✓").Foreground(colorGreen),
	StepActive:    lipgloss.NewStyle().SetString("●").Bold(true).Foreground(colorGold),
	StepPending:   lipgloss.NewStyle().SetString("○").Foreground(colorMuted),
}

func money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// shortID is the prefix shown in tables; commands accept any unique prefix.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printCart(w io.Writer, snap cart.Snapshot) {
	if len(snap.Lines) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("cart is empty"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tITEM\tSIZE\tEXTRAS\tQTY\tUNIT\tSUBTOTAL")
	for _, l := range snap.Lines {
		name := l.Name
		if name == "" {
			name = l.ProductRef
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			shortID(l.LineID), name, dash(l.SelectedSize), dash(strings.Join(l.SelectedExtras, ", ")),
			l.Quantity, money(l.UnitPriceCents), money(l.Subtotal()))
	}
	tw.Flush()
	fmt.Fprintf(w, "%s %s (%d items)\n", styles.Title.Render("Total"), money(snap.TotalCents), snap.Count)
	if !snap.Synced {
		fmt.Fprintln(w, styles.Warning.Render("warning: cart not saved on this device"))
	}
}

func printOrders(w io.Writer, orders []client.Order, now time.Time) {
	if len(orders) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("no orders yet"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tPLACED\tSTATUS\tTOTAL\tREADY")
	for _, o := range orders {
		ready := "-"
		if !lifecycle.Terminal(o.Status) {
			ready = countdownOf(o).Label(now)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.CreatedAt.Local().Format("Jan 2 15:04"), o.Status, money(o.TotalAmountCents), ready)
	}
	tw.Flush()
}

func printSteps(w io.Writer, o client.Order) {
	fmt.Fprintf(w, "%s %s\n", styles.Title.Render("Order"), o.ID)
	for _, s := range lifecycle.StepStates(o.Status) {
		var mark lipgloss.Style
		switch s.State {
		case lifecycle.StepCompleted:
			mark = styles.StepCompleted
		case lifecycle.StepActive:
			mark = styles.StepActive
		default:
			mark = styles.StepPending
		}
		fmt.Fprintf(w, "  %s %s\n", mark.String(), s.Status)
	}
}

// countdownOf rebuilds the countdown from the server snapshot so the CLI
// ticks locally between updates.
func countdownOf(o client.Order) lifecycle.Countdown {
	return lifecycle.NewCountdown(o.CreatedAt, o.Countdown.ReadyAt.Sub(o.CreatedAt))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
