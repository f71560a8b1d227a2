package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FirmProfile holds the firm data printed on petitions and e-mails.
type FirmProfile struct {
	Name             string   `yaml:"name"`
	ContactEmail     string   `yaml:"contact_email"`
	OfficeAddress    string   `yaml:"office_address"`
	LawyerName       string   `yaml:"lawyer_name"`
	LawyerOAB        string   `yaml:"lawyer_oab"`
	PublicationsText string   `yaml:"publications_text"`
	LegalGroundTitle string   `yaml:"legal_ground_title"`
	LegalGroundText  string   `yaml:"legal_ground_text"`
	ActionTitle      string   `yaml:"action_title"`
	DefaultRequests  []string `yaml:"default_requests"`
	SignatureURL     string   `yaml:"signature_url"`
}

// DefaultFirmProfile is used when no profile file is present.
func DefaultFirmProfile() FirmProfile {
	return FirmProfile{
		Name:          "Smart Legal",
		ContactEmail:  "contato@smartlegabr.com",
		OfficeAddress: "Rua Siqueira Campos, nº 243, salas 703, Copacabana, Rio de Janeiro – RJ, CEP: 22.031-071",
		LawyerName:    "Dr. Marcelo Victor Pereira Nunes Cavalcante",
		LawyerOAB:     "OAB/RJ-246336",
		PublicationsText: "Quanto às publicações, requer seja anotado na capa destes autos o nome do advogado " +
			"Dr. Marcelo Victor Pereira Nunes Cavalcante, inscrito na OAB/RJ-246336, para recebimento de todas " +
			"as publicações oficiais, sob pena de nulidade, na forma do §2º do artigo 272 do CPC.",
		LegalGroundTitle: "3.1 - DOS DEVERES DO TRANSPORTADOR EM DECORRÊNCIA DA FALHA NA PRESTAÇÃO DA INFORMAÇÃO – " +
			"INOBSERVÂNCIA DO ART. 12 CAPUT DA RESOLUÇÃO Nº 400/2016 DA ANAC.",
		LegalGroundText: "Consoante o exposto na narrativa dos fatos, observamos o tratamento reprovável que a empresa Ré " +
			"apresentou ao Autor, se eximindo da responsabilidade de prestar todas as informações concernentes ao voo.\n\n" +
			"No que tange ao dever do transportador em prestar informações aos consumidores, a resolução nº 400 da ANAC " +
			"buscou de forma prática amparar o usuário quanto ao seu direito de informação. Conforme aduz o art. 12:\n\n" +
			"Art. 12. As alterações realizadas de forma programada pelo transportador, em especial quanto ao horário e " +
			"itinerário originalmente contratados, deverão ser informadas aos passageiros com antecedência mínima de " +
			"72 (setenta e duas) horas.\n\n" +
			"O prazo do transportador aéreo para informar ao consumidor sobre o cancelamento e/ou alteração do voo é de " +
			"72 horas, especialmente no que tange ao itinerário e horário.",
		ActionTitle: "AÇÃO INDENIZATÓRIA POR DANOS MORAIS E MATERIAIS",
		DefaultRequests: []string{
			"a citação da Ré para, querendo, apresentar contestação, sob pena de revelia;",
			"a inversão do ônus da prova, nos termos do art. 6º, VIII, do CDC;",
			"a condenação da Ré ao pagamento de indenização por danos morais;",
			"a condenação da Ré ao pagamento de indenização por danos materiais.",
		},
		SignatureURL: "https://www.gov.br/pt-br/servicos/assinatura-eletronica",
	}
}

// LoadFirmProfile reads the YAML profile at path. Missing keys keep their defaults
// and a missing file yields the default profile.
func LoadFirmProfile(path string) (FirmProfile, error) {
	profile := DefaultFirmProfile()
	if strings.TrimSpace(path) == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return profile, nil
		}
		return profile, fmt.Errorf("failed to read firm profile: %w", err)
	}

	if err := yaml.Unmarshal(data, &profile); err != nil {
		return DefaultFirmProfile(), fmt.Errorf("failed to parse firm profile %s: %w", path, err)
	}
	return profile, nil
}
