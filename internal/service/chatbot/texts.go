package chatbot

const improveText = "💡 **RECOMENDACIONES PARA MEJORAR EL CUMPLIMIENTO:**\n\n" +
	"1. 📚 **Capacitación:**\n" +
	"   • Realizar charlas de 5 minutos antes de iniciar labores\n" +
	"   • Explicar la importancia de cada EPP\n\n" +
	"2. 🚪 **Control de acceso:**\n" +
	"   • Implementar puntos de verificación en entradas\n" +
	"   • No permitir el ingreso sin EPP completo\n\n" +
	"3. 📊 **Monitoreo continuo:**\n" +
	"   • Usar este sistema de detección regularmente\n" +
	"   • Generar reportes semanales de cumplimiento\n\n" +
	"4. 🎯 **Disponibilidad:**\n" +
	"   • Asegurar que haya EPP disponible para todos\n" +
	"   • Mantener stock de repuestos\n\n" +
	"5. 📜 **Normativa:**\n" +
	"   • Establecer consecuencias claras por incumplimiento\n" +
	"   • Reconocer y premiar el cumplimiento constante"

const whatIsPPEText = "🛡️ **¿QUÉ ES EPP?**\n\n" +
	"EPP = Equipos de Protección Personal\n\n" +
	"Son dispositivos y prendas que protegen al trabajador de riesgos que pueden amenazar su seguridad o salud.\n\n" +
	"✅ **EPP Básicos Obligatorios:**\n" +
	"• ⛑️ Casco de seguridad\n" +
	"• 🦺 Chaleco reflectivo\n" +
	"• 🧤 Guantes de trabajo\n" +
	"• 🥽 Gafas de protección\n\n" +
	"💡 **Recomendado:** 🥾 Botas de seguridad\n\n" +
	"📋 Su uso es obligatorio según normativas de seguridad laboral"

const regulationsText = "📋 **NORMATIVAS DE SEGURIDAD EPP**\n\n" +
	"🌎 **Normativas Internacionales:**\n" +
	"• OSHA (Occupational Safety and Health Administration)\n" +
	"• ANSI Z89.1 - Cascos de protección\n" +
	"• ANSI 107 / ISO 20471 - Ropa de alta visibilidad\n" +
	"• EN 388 - Guantes de protección\n\n" +
	"✅ **Requisitos Obligatorios:**\n" +
	"1. Casco en áreas de construcción e industria\n" +
	"2. Chaleco en zonas con vehículos\n" +
	"3. Guantes para manipulación de materiales\n" +
	"4. Gafas en trabajos con partículas\n" +
	"5. Botas con puntera de acero (recomendadas)\n\n" +
	"⚖️ El incumplimiento puede resultar en multas y suspensión de actividades"

const howItWorksText = "🤖 **¿CÓMO FUNCIONA EL SISTEMA?**\n\n" +
	"Un detector de objetos localiza personas y equipos de protección en cada imagen.\n\n" +
	"📸 **Para Imágenes:**\n" +
	"1. Subes una foto del trabajador\n" +
	"2. El detector encuentra personas y EPP\n" +
	"3. Cada equipo se asigna a la persona cuya caja lo contiene (al menos 30% de su área)\n" +
	"4. Se muestra qué implementos faltan a cada persona\n\n" +
	"🎥 **Para Videos:**\n" +
	"1. Subes un video\n" +
	"2. Se analiza uno de cada N frames\n" +
	"3. Un frame cumple si hay al menos tantos cascos, chalecos, guantes y gafas como personas\n" +
	"4. Reporte con tasa de cumplimiento y frames con violaciones"

const helmetTypesText = "⛑️ **TIPOS DE CASCOS DE SEGURIDAD**\n\n" +
	"**Clase G (General):**\n" +
	"• Protección contra impactos\n" +
	"• Resistencia a 2,200V\n" +
	"• Uso: Construcción general\n\n" +
	"**Clase E (Eléctrica):**\n" +
	"• Alta resistencia dieléctrica\n" +
	"• Protección hasta 20,000V\n" +
	"• Uso: Trabajos eléctricos\n\n" +
	"**Clase C (Conductora):**\n" +
	"• Sin protección eléctrica\n" +
	"• Ventilación mejorada\n" +
	"• Uso: Áreas sin riesgo eléctrico\n\n" +
	"🎨 **Por Color:**\n" +
	"• Blanco: Supervisores\n" +
	"• Amarillo: Operarios\n" +
	"• Azul: Electricistas\n" +
	"• Verde: Brigadistas"

const vestText = "🦺 **IMPORTANCIA DEL CHALECO REFLECTIVO**\n\n" +
	"**¿Por qué es obligatorio?**\n" +
	"• Aumenta la visibilidad del trabajador a gran distancia\n" +
	"• Reduce el riesgo de atropello\n" +
	"• Obligatorio en zonas de tráfico\n\n" +
	"**Características clave:**\n" +
	"• Material reflectivo de alta intensidad\n" +
	"• Colores fluorescentes (amarillo/naranja)\n" +
	"• Debe cumplir ANSI 107 Clase 2 o 3\n\n" +
	"**Cuándo usarlo:**\n" +
	"✅ Cerca de vehículos o maquinaria\n" +
	"✅ Áreas de baja iluminación\n" +
	"✅ Carreteras y vías públicas\n" +
	"✅ Almacenes y zonas logísticas"

const glovesText = "🧤 **PROTECCIÓN DE MANOS - GUANTES**\n\n" +
	"**¿Por qué son importantes?**\n" +
	"• Las manos son una de las partes del cuerpo más lesionadas en el trabajo\n" +
	"• Protegen contra cortes, químicos y calor\n\n" +
	"**Tipos de Guantes:**\n" +
	"1. Cuero: construcción y carpintería\n" +
	"2. Nitrilo: manipulación de químicos y aceites\n" +
	"3. Látex: uso médico y limpieza\n" +
	"4. Anticorte: manejo de vidrio y metal\n" +
	"5. Térmicos: trabajos con calor o frío\n\n" +
	"📏 Elige según la tarea específica"

const greetingText = "¡Hola! 👋 Soy tu asistente EPP.\n\n" +
	"Puedo ayudarte con:\n" +
	"• Preguntas sobre normativas EPP\n" +
	"• Tipos de equipos de protección\n" +
	"• Verificar cumplimiento en imágenes/videos\n\n" +
	"¿Qué necesitas saber?"
