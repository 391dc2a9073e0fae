package outreach

import "github.com/solvari/radar/pkg/domain"

// genericTemplate is the last-resort template when neither the exact
// (ring, channel) pair nor the ring's email template exists
const genericTemplate = `Hallo {name},

Wij zijn Solvari, het platform dat vakmensen koppelt aan huiseigenaren in {location}.
Graag vertellen we u meer over wat wij voor {business_name} kunnen betekenen.

Met vriendelijke groet,
Solvari Team`

// templates maps (ring, channel) to a message template. Placeholders use
// {token} syntax and are resolved by the generator. Email templates start
// with an "Onderwerp:" line that becomes the subject.
var templates = map[domain.Ring]map[domain.Channel]string{
	// ring 1: vakman - focus on efficiency and revenue
	domain.RingVakman: {
		domain.ChannelEmail: `Onderwerp: Directe agenda-vulling voor {business_name} 📅

Beste {name},

Als gevestigd {specialization} in {location} weten wij hoe belangrijk een gevulde agenda is.

Solvari koppelt u direct aan huiseigenaren die NU een vakman zoeken:
✅ Geen acquisitie meer nodig
✅ Instant uitbetaling binnen 24 uur
✅ Alleen serieuze aanvragen in uw regio

Bedrijven zoals het uwe verdienen gemiddeld €2.500 extra per maand via ons platform.

Geïnteresseerd in een vrijblijvend gesprek?

Met vriendelijke groet,
Solvari Team`,
		domain.ChannelDM: `Hoi {name}! 👋

Gezien jullie sterke reputatie bij {business_name} - wij helpen vakmensen zoals jullie met directe leads. Interesse in meer info? Geen verplichtingen!`,
	},

	// ring 2: zzp'er - focus on growth and tools
	domain.RingZZP: {
		domain.ChannelEmail: `Onderwerp: Gratis AI-tool voor je offertes + leads in je inbox 🚀

Hey {name},

Zag je profiel en dacht: dit is iemand die vooruit wil!

Speciaal voor ondernemers zoals jij:
🤖 Gratis Admin-Bot - AI maakt je offertes in 30 sec
📍 Real-time Lead Radar - klussen in jouw buurt
📱 App met push-notificaties

Je bent al actief op social media - waarom niet ook via Solvari groeien?

Check het vrijblijvend op solvari.nl/zzp

Groet,
Team Solvari`,
		domain.ChannelDM: `Hey {name}! 🔥

Gave content op je profiel! We hebben gratis tools voor ondernemers zoals jij - AI voor offertes + directe leads. Interesse? Check solvari.nl/zzp 💪`,
	},

	// ring 3: hobbyist - focus on starting safely
	domain.RingHobbyist: {
		domain.ChannelEmail: `Onderwerp: Start als vakman - zonder risico 🌱

Hallo {name},

We zagen dat je al actief bent met {service_description}.

Wist je dat je dit kunt uitbouwen tot een echte onderneming?

Het Solvari Starter Programma:
🎯 Max €500 klussen om te beginnen
📋 ZZP Wizard - wij helpen met KvK papierwerk
🛡️ Veilige sandbox omgeving
💡 Geen opstartkosten

Veel van onze beste vakmensen begonnen precies zoals jij!

Nieuwsgierig? Reageer op deze mail.

Succes!
Solvari Team`,
		domain.ChannelInvite: `🌟 SOLVARI STARTER UITNODIGING 🌟

Hoi {name}!

Je bent uitgenodigd voor het Solvari Starter programma.

Begin met kleine klussen (max €500) en groei op je eigen tempo.
Wij helpen met alles - van KvK tot je eerste klant.

👉 Start nu: solvari.nl/starter?code=WELCOME2024

Groetjes,
Team Solvari`,
	},
}

// lookupTemplate resolves a template for a (ring, channel) pair. Lookup
// never fails, it only degrades: exact pair, then the ring's email
// template, then the generic greeting.
func lookupTemplate(ring domain.Ring, channel domain.Channel) string {
	ringTemplates, ok := templates[ring]
	if !ok {
		// unknown ring (e.g. academy) falls back to the zzp set
		ringTemplates = templates[domain.RingZZP]
	}

	if tmpl, ok := ringTemplates[channel]; ok {
		return tmpl
	}
	if tmpl, ok := ringTemplates[domain.ChannelEmail]; ok {
		return tmpl
	}
	return genericTemplate
}
