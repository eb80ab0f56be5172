package progress

import (
	"fmt"
	"regexp"

	"salespilot/internal/config"
)

// Category is one named ask/answer pattern pair with its escalating
// remediation instructions. New categories are additive: register them in
// the table, no control-flow changes needed.
type Category struct {
	Name   string
	Ask    *regexp.Regexp // matches an assistant turn asking the question
	Answer *regexp.Regexp // matches a user turn satisfying it
	Tier2  string         // after 2 consecutive unanswered asks
	Tier3  string         // after 3; forbids re-asking
}

type categorySpec struct {
	name, ask, answer, tier2, tier3 string
}

// Built-in categories: contact info, meeting proposal, categorical fact,
// quantitative fact.
var defaultCategories = []categorySpec{
	{
		name:   "email",
		ask:    `(?i)(correo( electr[oó]nico)?|email|e-mail)`,
		answer: `[\w.+-]+@[\w-]+\.[\w.-]+`,
		tier2: "El cliente no ha compartido su correo tras dos intentos. " +
			"Reformula la petición explicando el beneficio concreto de dejarlo.",
		tier3: "No vuelvas a pedir el correo. Continúa por este chat y " +
			"propone el siguiente paso sin ese dato.",
	},
	{
		name:   "meeting",
		ask:    `(?i)(reuni[oó]n|llamada|videollamada|agendar|una cita)`,
		answer: `(?i)(lunes|martes|mi[eé]rcoles|jueves|viernes|s[aá]bado|domingo|mañana|hoy|\d{1,2}\s*(am|pm|hrs|:\d{2})|de acuerdo|perfecto|claro que s[ií])`,
		tier2: "El cliente no ha aceptado agendar tras dos propuestas. " +
			"Ofrece resolver su duda principal antes de volver a proponer fecha.",
		tier3: "No propongas más reuniones. Avanza la venta dentro del chat " +
			"y deja que el cliente pida la llamada cuando esté listo.",
	},
	{
		name:   "businessType",
		ask:    `(?i)(a qu[eé] te dedicas|tipo de negocio|qu[eé] negocio|giro de (tu|la) (negocio|empresa)|qu[eé] vendes)`,
		answer: `(?i)(tienda|restaurante|vend[oe]|negocio de|empresa de|servicio|taller|consultor|f[aá]brica|distribuid|agencia)`,
		tier2: "El cliente no ha descrito su negocio tras dos preguntas. " +
			"Propón ejemplos de giros comunes para que elija uno.",
		tier3: "No preguntes de nuevo por el giro del negocio. Asume un caso " +
			"general y presenta el valor del producto directamente.",
	},
	{
		name:   "volume",
		ask:    `(?i)(cu[aá]nt[oa]s?\s+(ventas|pedidos|clientes|mensajes|unidades)|volumen|por mes|al mes)`,
		answer: `\d+`,
		tier2: "El cliente no ha dado cifras tras dos preguntas. Ofrece " +
			"rangos (pocos, medianos, muchos) en lugar de pedir un número exacto.",
		tier3: "No pidas más cifras. Recomienda el plan intermedio y explica " +
			"que puede ajustarse después.",
	},
}

// BuildCategories compiles the built-in table, applying any YAML-defined
// overrides or additions.
func BuildCategories(custom []config.AskCategoryConfig) ([]Category, error) {
	specs := make([]categorySpec, len(defaultCategories))
	copy(specs, defaultCategories)

	for _, c := range custom {
		spec := categorySpec{name: c.Name, ask: c.Ask, answer: c.Answer, tier2: c.Tier2, tier3: c.Tier3}
		if c.Replace {
			replaced := false
			for i := range specs {
				if specs[i].name == c.Name {
					specs[i] = spec
					replaced = true
					break
				}
			}
			if replaced {
				continue
			}
		}
		specs = append(specs, spec)
	}

	cats := make([]Category, 0, len(specs))
	for _, s := range specs {
		ask, err := regexp.Compile(s.ask)
		if err != nil {
			return nil, fmt.Errorf("category %s: bad ask pattern: %w", s.name, err)
		}
		answer, err := regexp.Compile(s.answer)
		if err != nil {
			return nil, fmt.Errorf("category %s: bad answer pattern: %w", s.name, err)
		}
		cats = append(cats, Category{
			Name:   s.name,
			Ask:    ask,
			Answer: answer,
			Tier2:  s.tier2,
			Tier3:  s.tier3,
		})
	}
	return cats, nil
}
