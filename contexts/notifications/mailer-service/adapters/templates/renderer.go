package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"cakeshop/contexts/notifications/mailer-service/domain/entities"
	domainerrors "cakeshop/contexts/notifications/mailer-service/domain/errors"
	"cakeshop/contexts/notifications/mailer-service/ports"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed files/*.html
var files embed.FS

var subjects = map[string]string{
	"order.placed/customer":          "Votre commande %s est enregistrée",
	"order.placed/merchant":          "Nouvelle commande %s",
	"order.requested/customer":       "Votre demande %s a été transmise",
	"order.requested/merchant":       "Nouvelle demande sur mesure %s",
	"order.quoted/customer":          "Votre devis pour la commande %s",
	"order.quote_accepted/merchant":  "Devis accepté pour la commande %s",
	"order.confirmed/customer":       "Commande %s confirmée",
	"order.ready/customer":           "Commande %s prête à retirer",
	"order.completed/customer":       "Merci pour la commande %s",
	"order.refused/customer":         "Commande %s annulée",
	"order.refused/merchant":         "Devis décliné pour la commande %s",
	"order.pickup_reminder/customer": "Rappel : retrait de la commande %s",
}

// Renderer renders order emails from the embedded templates.
type Renderer struct {
	tmpl *template.Template
	lang language.Tag
}

func NewRenderer(locale string) (*Renderer, error) {
	lang, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		lang = language.French
	}
	r := &Renderer{lang: lang}
	tmpl, err := template.New("emails").
		Funcs(template.FuncMap{"amount": func(cents int64) string { return r.amount(cents, "") }}).
		ParseFS(files, "files/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

type view struct {
	Lang           string
	Subject        string
	Event          ports.OrderEvent
	Total          string
	Deposit        string
	PickupDate     string
	QuoteExpiresAt string
}

func (r *Renderer) Render(eventType string, role entities.Role, event ports.OrderEvent) (ports.Message, error) {
	name := eventType + "/" + string(role)
	subjectFormat, ok := subjects[name]
	if !ok || r.tmpl.Lookup(name) == nil {
		return ports.Message{}, fmt.Errorf("%w: %s", domainerrors.ErrUnknownTemplate, name)
	}

	data := view{
		Lang:           r.lang.String(),
		Subject:        fmt.Sprintf(subjectFormat, event.Ref),
		Event:          event,
		Total:          r.amount(event.TotalCents, event.Currency),
		Deposit:        r.amount(event.DepositCents, event.Currency),
		PickupDate:     r.date(event.PickupDate),
		QuoteExpiresAt: r.date(event.QuoteExpiresAt),
	}

	content, err := r.tmpl.Lookup(name).Clone()
	if err != nil {
		return ports.Message{}, err
	}
	if _, err := content.New("content").Parse(`{{template "` + name + `" .}}`); err != nil {
		return ports.Message{}, err
	}
	var body bytes.Buffer
	if err := content.ExecuteTemplate(&body, "layout", data); err != nil {
		return ports.Message{}, fmt.Errorf("render %s: %w", name, err)
	}

	return ports.Message{
		Subject:  data.Subject,
		HTMLBody: body.String(),
		TextBody: r.text(data),
	}, nil
}

// amount formats minor units in the renderer locale, e.g. "45,00 EUR".
func (r *Renderer) amount(cents int64, code string) string {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		unit = currency.EUR
	}
	scale, _ := currency.Standard.Rounding(unit)
	printer := message.NewPrinter(r.lang)
	value := float64(cents) / 100
	return printer.Sprint(number.Decimal(value, number.Scale(scale))) + " " + unit.String()
}

func (r *Renderer) date(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return value
		}
	}
	return parsed.Format("02/01/2006")
}

func (r *Renderer) text(data view) string {
	var b strings.Builder
	b.WriteString(data.Subject)
	b.WriteString("\n\n")
	if data.Event.ProductName != "" {
		b.WriteString(data.Event.ProductName + "\n")
	}
	if data.Event.TotalCents > 0 {
		b.WriteString("Total : " + data.Total + "\n")
	}
	if data.Event.PaymentLink != "" {
		b.WriteString("Acompte : " + data.Event.PaymentLink + "\n")
	}
	if data.Event.OrderPageURL != "" {
		b.WriteString(data.Event.OrderPageURL + "\n")
	}
	return b.String()
}

var _ ports.Renderer = (*Renderer)(nil)
