package enrich

import (
	"fmt"
	"strings"

	"github.com/sells-group/directory-cli/internal/geo"
	"github.com/sells-group/directory-cli/internal/model"
)

const systemPrompt = `You write factual directory listings for local laundry businesses. Write in plain, specific prose for people deciding where to do their laundry. Use only the facts provided; never invent prices, hours, amenities, awards, or reviews. Do not use headings, bullet points, or marketing clichés. Do not address the reader as "you" in the first sentence. Return only the description text.`

// angle steers each service type toward different content so descriptions
// across the directory do not converge on one template.
type angle struct {
	Focus     string
	Structure string
}

var angles = map[string]angle{
	"self-service": {
		Focus:     "the self-service washing and drying experience: machine use, payment at the machines, and what a visit is like for someone bringing their own laundry",
		Structure: "Open with where the business is and who it serves. Follow with a paragraph on using the machines and paying. Close with practical tips for a first visit.",
	},
	"wash-and-fold": {
		Focus:     "drop-off wash-and-fold service: handing laundry over, turnaround expectations, and who benefits from not doing it themselves",
		Structure: "Open with the convenience the service offers busy households. Follow with how drop-off works in general terms. Close with what to bring or check before dropping off.",
	},
	"dry-cleaning": {
		Focus:     "dry cleaning and garment care: delicate fabrics, formal wear, and why professional cleaning differs from a home wash",
		Structure: "Open with the kinds of garments customers bring. Follow with how professional garment care works. Close with advice on preparing items for drop-off.",
	},
	"commercial": {
		Focus:     "commercial and bulk laundry for businesses such as restaurants, gyms, salons, and rental hosts",
		Structure: "Open with the business customers this kind of service suits. Follow with how recurring or bulk service generally works. Close with what a business should ask when setting it up.",
	},
	"pickup-delivery": {
		Focus:     "pickup and delivery laundry service: scheduling, handoff at the door, and the time it saves",
		Structure: "Open with the area the business covers. Follow with how a pickup-and-delivery cycle generally works. Close with tips for a first order.",
	},
}

var defaultAngle = angle{
	Focus:     "the laundry services the business offers and what a customer can expect from a visit",
	Structure: "Open with where the business is and who it serves. Follow with the services and payment options. Close with practical tips for a first visit.",
}

// BuildRequest renders the generation request for a facility. The template
// is chosen by the primary service type.
func BuildRequest(f *model.Facility, minWords, maxWords int) Request {
	a, ok := angles[f.PrimaryServiceType()]
	if !ok {
		a = defaultAngle
	}

	region := f.Region
	if name, ok := geo.StateName(f.Region); ok {
		region = name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a directory description of %d to %d words for this business.\n\n", minWords, maxWords)
	b.WriteString("Facts:\n")
	fmt.Fprintf(&b, "- Name: %s\n", f.Name)
	fmt.Fprintf(&b, "- Location: %s, %s\n", f.City, region)
	if f.SubRegion != "" {
		fmt.Fprintf(&b, "- County: %s\n", f.SubRegion)
	}
	if f.Address != "" {
		fmt.Fprintf(&b, "- Address: %s\n", f.Address)
	}
	writeList(&b, "Services", f.ServiceTypes)
	writeList(&b, "Certifications", f.Certifications)
	writeList(&b, "Payment methods", f.PaymentMethods)
	if f.Website != "" {
		fmt.Fprintf(&b, "- Website: %s\n", f.Website)
	}
	fmt.Fprintf(&b, "\nFocus on %s.\n", a.Focus)
	fmt.Fprintf(&b, "%s\n", a.Structure)

	return Request{System: systemPrompt, Prompt: b.String()}
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(items, ", "))
}
