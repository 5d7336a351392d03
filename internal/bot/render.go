package bot

import (
	"fmt"

	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
)

const (
	msgWelcome            = "Bem-vindo ao Sistema de Rastreamento! \n\nPara acessar, por favor, digite seu *CPF*:"
	msgAskPassword        = "Agora, por favor, digite sua *senha*:"
	msgInvalidCredentials = "CPF ou senha incorretos, ou nenhum veiculo encontrado.\n\nPor favor, digite seu *CPF* para tentar novamente:"
	msgInlineWelcome      = "Bem-vindo ao Sistema de Rastreamento!\n\nPara acessar, envie:\nCPF,SENHA"
	msgInlineInvalid      = "Credenciais invalidas ou nenhum veiculo encontrado.\n\nEnvie: CPF,SENHA"
	msgFarewell           = "Ate logo!"
	msgTemporaryFailure   = "Desculpe, nao foi possivel processar sua mensagem agora. Tente novamente em instantes."
	msgUnknownState       = "Sua sessao foi reiniciada. Envie qualquer mensagem para comecar novamente."
	msgVehicleNotFound    = "Veiculo nao encontrado."
	msgNoVehicles         = "Nenhum veiculo cadastrado."
	msgSystemBanner       = "Voce esta no sistema de Rastreamento!"
	msgSelectVehicle      = "Selecione um veiculo para ver opcoes:"
	msgChooseOption       = "Escolha uma opcao:"
	msgExitHint           = "Digite *sair* para encerrar."

	vehicleListLabel   = "Ver Veiculos"
	vehicleListSection = "Seus Veiculos"

	mapsURL = "https://maps.google.com/?q=%v,%v"
)

var (
	buttonLocation = model.Button{ID: "localizacao", Title: "Localizacao"}
	buttonBlock    = model.Button{ID: "bloquear", Title: "Bloquear"}
	buttonUnblock  = model.Button{ID: "desbloquear", Title: "Desbloquear"}
	buttonMenu     = model.Button{ID: "menu", Title: "Menu"}
	buttonExit     = model.Button{ID: "sair", Title: "Sair"}
	buttonBack     = model.Button{ID: "voltar", Title: "Voltar"}
)

func toggleButton(v model.VehicleRef) model.Button {
	if v.Blocked {
		return buttonUnblock
	}
	return buttonBlock
}

func vehicleSummary(v model.VehicleRef) string {
	return fmt.Sprintf("Veiculo: %s\nModelo: %s\nStatus: %s", v.Plate, v.Model, v.StatusLabel())
}

// singleVehicleMenu is shown right after sign-in when the account has one
// vehicle. It leaves room for exit within the three-button limit.
func singleVehicleMenu(greeting string, v model.VehicleRef) (string, []model.Button) {
	body := greeting + msgSystemBanner + "\n\n" + vehicleSummary(v)
	return body, []model.Button{buttonLocation, toggleButton(v), buttonExit}
}

// optionsMenu is the per-vehicle action menu. With several vehicles the menu
// button takes the last slot and exit moves into the body text.
func optionsMenu(v model.VehicleRef, vehicleCount int) (string, []model.Button) {
	body := msgSystemBanner + "\n\n" + vehicleSummary(v) + "\n\n" + msgChooseOption
	buttons := []model.Button{buttonLocation, toggleButton(v)}
	if vehicleCount > 1 {
		return body + "\n" + msgExitHint, append(buttons, buttonMenu)
	}
	return body, append(buttons, buttonExit)
}

// afterActionButtons follow a location or block reply.
func afterActionButtons(vehicleCount int) []model.Button {
	buttons := []model.Button{buttonBack}
	if vehicleCount > 1 {
		buttons = append(buttons, buttonMenu)
	}
	return append(buttons, buttonExit)
}

func vehicleList(greeting string, vehicles []model.VehicleRef) (string, string, []model.ListSection) {
	rows := make([]model.ListRow, 0, len(vehicles))
	for _, v := range vehicles {
		rows = append(rows, model.ListRow{ID: v.ID, Title: v.Plate, Description: v.Model})
	}
	body := greeting + msgSystemBanner + "\n\n" + msgSelectVehicle
	return body, vehicleListLabel, []model.ListSection{{Title: vehicleListSection, Rows: rows}}
}

func greetingFor(name string) string {
	return fmt.Sprintf("Ola, %s!\n", name)
}

func locationText(v model.VehicleRef, loc *model.Location) string {
	return fmt.Sprintf(
		"Localizacao do veiculo modelo %s de placa %s:\n\nEndereco: %s\nVelocidade: %v km/h\nUltima atualizacao: %s\n\nMaps: "+mapsURL,
		v.Model, v.Plate, loc.Address, loc.Speed, loc.LastUpdate, loc.Lat, loc.Lng,
	)
}

func locationUnavailableText(v model.VehicleRef) string {
	return fmt.Sprintf("Nao foi possivel obter a localizacao do veiculo %s.", v.Plate)
}

func blockResultText(v model.VehicleRef, blocked bool, ok bool) string {
	if !ok {
		return fmt.Sprintf("Nao foi possivel enviar o comando para %s.", v.Plate)
	}
	if blocked {
		return fmt.Sprintf("Comando de bloqueio enviado para %s.", v.Plate)
	}
	return fmt.Sprintf("Comando de desbloqueio enviado para %s.", v.Plate)
}
